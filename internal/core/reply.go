package core

var replyGreetings = map[string]string{
	"professional": "Thank you for your email.",
	"casual":       "Thanks for reaching out!",
	"friendly":     "Hi! Thanks for your message.",
}

// FallbackReply builds a template reply for when no generator is
// available or the generator call failed.
func FallbackReply(subject, tone string) string {
	greeting, ok := replyGreetings[tone]
	if !ok {
		greeting = replyGreetings["professional"]
	}
	return greeting + " I'll get back to you soon regarding: " + subject
}
