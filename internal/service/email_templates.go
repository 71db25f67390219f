package service

import "fmt"

func passwordResetEmailTemplate(resetURL, name, appName string, expiry string) (string, string) {
	if name == "" {
		name = "there"
	}
	subject := fmt.Sprintf("Reset your %s password", appName)
	body := fmt.Sprintf(`Hi %s,

You requested to reset your password. Choose a new one here:
%s

This link expires in %s and can only be used once.

If you didn't request this, you can safely ignore this email. Your password won't be changed.

Best,
The %s Team`, name, resetURL, expiry, appName)

	return subject, body
}

func welcomeEmailTemplate(name, appURL, appName string) (string, string) {
	if name == "" {
		name = "there"
	}
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi %s,

Your journal is ready. Write your first memory:
%s

Best,
The %s Team`, name, appURL, appName)

	return subject, body
}
