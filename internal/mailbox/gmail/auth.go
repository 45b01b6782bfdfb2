package gmail

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Credentials says where the OAuth client and the cached token live.
// ClientSecretJSON, when set, holds the client JSON inline and wins over
// Dir/client_secret.json.
type Credentials struct {
	Dir              string
	ClientSecretJSON string
}

func (c Credentials) tokenPath() string { return filepath.Join(c.Dir, "token.json") }

func (c Credentials) oauthConfig() (*oauth2.Config, error) {
	b := []byte(c.ClientSecretJSON)
	if len(b) == 0 {
		path := filepath.Join(c.Dir, "client_secret.json")
		var err error
		b, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read credentials at %s (or set CLIENT_SECRET_JSON): %w", path, err)
		}
	}
	cfg, err := google.ConfigFromJSON(b, gmailv1.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth config: %w", err)
	}
	return cfg, nil
}

// Prompter is how the consent step reaches the user. ShowAuthURL is called
// once with the URL to open. Paste blocks until the user pastes either the
// bare code or the full redirect URL; the loopback redirect usually wins the
// race and Paste is abandoned through ctx.
type Prompter interface {
	ShowAuthURL(authURL string)
	Paste(ctx context.Context) (string, error)
}

// NewService returns a Gmail client for the signed-in user. A cached token
// is tried first and dropped if Gmail rejects it; otherwise the consent flow
// runs through p.
func NewService(ctx context.Context, creds Credentials, p Prompter, logger *zap.Logger) (*gmailv1.Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg, err := creds.oauthConfig()
	if err != nil {
		return nil, err
	}

	tokFile := creds.tokenPath()
	if tok, err := readToken(tokFile); err == nil {
		svc, err := gmailv1.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
		if err == nil {
			_, err = svc.Users.GetProfile("me").Context(ctx).Do()
		}
		if err == nil {
			return svc, nil
		}
		logger.Info("Cached Gmail token rejected, re-authenticating", zap.Error(err))
		os.Remove(tokFile)
	}

	tok, err := tokenFromWeb(ctx, cfg, p)
	if err != nil {
		return nil, err
	}
	if err := saveToken(tokFile, tok); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}

	svc, err := gmailv1.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return svc, nil
}

func readToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var tok oauth2.Token
	if err := json.NewDecoder(f).Decode(&tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// tokenFromWeb serves the redirect on a random loopback port and races it
// against a manual paste.
func tokenFromWeb(ctx context.Context, base *oauth2.Config, p Prompter) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen on loopback: %w", err)
	}
	cfg := *base
	cfg.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d/", ln.Addr().(*net.TCPAddr).Port)

	codes := make(chan string, 1)
	srv := &http.Server{
		ReadHeaderTimeout: 5 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "Missing 'code' parameter", http.StatusBadRequest)
				return
			}
			fmt.Fprintln(w, "Authentication complete. You can close this window.")
			select {
			case codes <- code:
			default:
			}
		}),
	}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Shutdown(context.Background())

	pasteCtx, cancelPaste := context.WithCancel(ctx)
	defer cancelPaste()
	pasted := make(chan string, 1)
	pasteErr := make(chan error, 1)
	go func() {
		in, err := p.Paste(pasteCtx)
		if err != nil {
			pasteErr <- err
			return
		}
		pasted <- in
	}()

	p.ShowAuthURL(cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce))

	var code string
	for code == "" {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case code = <-codes:
		case in := <-pasted:
			code, err = codeFromInput(in)
			if err != nil {
				return nil, err
			}
		case err := <-pasteErr:
			if !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("read authorization code: %w", err)
			}
			// No input to paste from; the redirect is the only way in.
			pasteErr = nil
		}
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	return tok, nil
}

// codeFromInput accepts either the bare code or the full redirect URL.
func codeFromInput(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("empty authorization code")
	}
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return input, nil
	}
	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("parse redirect URL: %w", err)
	}
	code := strings.TrimSpace(u.Query().Get("code"))
	if code == "" {
		return "", errors.New("no 'code' parameter found in pasted URL")
	}
	return code, nil
}

// TerminalPrompter runs the consent step on a plain terminal.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

func (t TerminalPrompter) ShowAuthURL(authURL string) {
	fmt.Fprintln(t.Out, "Open this URL in your browser to authorize jobtrail:")
	fmt.Fprintln(t.Out, authURL)
	fmt.Fprintln(t.Out)
	fmt.Fprintln(t.Out, "Waiting for the browser redirect. If it never arrives, paste the code or the full redirect URL here and press Enter.")
	fmt.Fprint(t.Out, "> ")
}

// Paste reads one line. The read itself cannot be interrupted, so a
// cancelled ctx only stops the wait.
func (t TerminalPrompter) Paste(ctx context.Context) (string, error) {
	lines := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(t.In)
		sc.Buffer(make([]byte, 0, 1024), 1024*1024)
		if sc.Scan() {
			lines <- sc.Text()
			return
		}
		if err := sc.Err(); err != nil {
			errs <- err
			return
		}
		errs <- io.EOF
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l := <-lines:
		return l, nil
	case err := <-errs:
		return "", err
	}
}
