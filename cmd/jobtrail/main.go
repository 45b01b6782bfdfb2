package main

import "github.com/joho/godotenv"

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()
	Execute()
}

