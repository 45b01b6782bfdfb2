package taxonomy

// Default returns the built-in phrase lists.
func Default() *Taxonomy {
	t, err := New(defaultRelevance, defaultStages)
	if err != nil {
		panic("taxonomy: invalid built-in phrases: " + err.Error())
	}
	return t
}

var defaultStages = map[Stage][]string{
	Application: {
		"application received",
		"thank you for applying",
		"your application",
		"we have received your application",
		"application confirmation",
		"application submitted",
		"applied",
		"we've received your application",
		"resume received",
		"job application",
		"talent acquisition",
		"we've received your interest",
		"your candidacy",
		"application status",
		"applicant tracking",
	},
	Interview: {
		"interview",
		"schedule",
		"meeting",
		"hiring manager",
		"technical assessment",
		"coding challenge",
		"phone screen",
		"virtual interview",
		"in-person interview",
		"technical interview",
		"screening call",
		"interview invitation",
		"meet the team",
		"video meeting",
		"zoom interview",
		"talent assessment",
		"online assessment",
		"virtual meeting",
		"take-home assignment",
		"behavioral interview",
	},
	Offer: {
		"offer letter",
		"congratulations",
		"we are pleased to offer",
		"formal offer",
		"compensation package",
		"job offer",
		"welcome to the team",
		"employment offer",
		"position offer",
		"benefits package",
		"employment contract",
		"salary offer",
		"start date",
		"we're excited to offer",
		"offer of employment",
	},
	Rejection: {
		"we regret to inform you",
		"not selected",
		"unfortunately",
		"not moving forward",
		"other candidates",
		"best of luck",
		"future opportunities",
		"position has been filled",
		"moving forward with other candidates",
		"not a match",
		"we decided to proceed with",
		"no longer under consideration",
		"we appreciate your interest",
		"candidate pool",
		"better suited candidates",
		"thank you for your time",
		"not proceeding",
	},
}

var defaultRelevance = []string{
	"job", "career", "position", "employment", "opportunity", "recruiting",
	"recruiter", "talent", "hiring", "hr department", "human resources",
	"application", "apply", "applied", "role", "interview", "resume",
	"cover letter", "candidate", "recruitment", "employer", "company career",
	"hiring team", "staff", "team member", "onboarding", "work", "vacancy",
}
