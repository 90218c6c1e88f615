// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package mailer

import (
	"fmt"
	"html"
)

// emailShell wraps body HTML in a minimal responsive layout shared by all
// outbound mail.
func emailShell(siteName, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#f4f4f5;font-family:Helvetica,Arial,sans-serif;">
  <table role="presentation" width="100%%" cellpadding="0" cellspacing="0">
    <tr><td align="center" style="padding:32px 16px;">
      <table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:8px;padding:32px;">
        <tr><td style="font-size:20px;font-weight:bold;padding-bottom:16px;">%s</td></tr>
        <tr><td style="font-size:15px;line-height:1.6;color:#27272a;">%s</td></tr>
      </table>
      <p style="font-size:12px;color:#a1a1aa;padding-top:16px;">%s</p>
    </td></tr>
  </table>
</body>
</html>`, html.EscapeString(siteName), body, html.EscapeString(siteName))
}

func button(url, label string) string {
	return fmt.Sprintf(`<p style="padding:16px 0;"><a href="%s" style="background:#18181b;color:#ffffff;padding:12px 24px;border-radius:6px;text-decoration:none;display:inline-block;">%s</a></p>`,
		html.EscapeString(url), html.EscapeString(label))
}

// VerificationEmail builds the email-verification message.
func VerificationEmail(siteName, name, verifyURL string) Message {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Thanks for creating an account. Please confirm your email address to activate it. The link is valid for 24 hours.</p>
%s
<p>If you didn't sign up, you can safely ignore this email.</p>`,
		html.EscapeString(name), button(verifyURL, "Verify email address"))
	return Message{
		Subject: "Verify your email address",
		HTML:    emailShell(siteName, body),
	}
}

// WelcomeEmail builds the message sent after successful verification.
func WelcomeEmail(siteName, name, dashboardURL string) Message {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your email is verified and your account is ready. Head to your dashboard to browse and download books.</p>
%s`,
		html.EscapeString(name), button(dashboardURL, "Go to dashboard"))
	return Message{
		Subject: "Welcome to " + siteName,
		HTML:    emailShell(siteName, body),
	}
}

// PasswordResetEmail builds the password-reset message.
func PasswordResetEmail(siteName, resetURL string) Message {
	body := fmt.Sprintf(`<p>We received a request to reset the password for your account.</p>
%s
<p>The link is valid for 1 hour. If you didn't request a reset, no action is needed.</p>`,
		button(resetURL, "Reset password"))
	return Message{
		Subject: "Reset your password",
		HTML:    emailShell(siteName, body),
	}
}

// NewsletterWelcomeEmail builds the message confirming a newsletter signup.
func NewsletterWelcomeEmail(siteName, unsubscribeURL string) Message {
	body := fmt.Sprintf(`<p>You're subscribed! We'll let you know about new books and articles.</p>
<p style="font-size:13px;color:#71717a;">Changed your mind? <a href="%s">Unsubscribe</a> any time.</p>`,
		html.EscapeString(unsubscribeURL))
	return Message{
		Subject: "You're subscribed to the " + siteName + " newsletter",
		HTML:    emailShell(siteName, body),
	}
}

// CampaignEmail builds one newsletter campaign message. contentHTML is the
// already-rendered, sanitized campaign body.
func CampaignEmail(siteName, subject, contentHTML, unsubscribeURL string) Message {
	body := fmt.Sprintf(`%s
<hr style="border:none;border-top:1px solid #e4e4e7;margin:24px 0;">
<p style="font-size:13px;color:#71717a;">You're receiving this because you subscribed to the %s newsletter. <a href="%s">Unsubscribe</a>.</p>`,
		contentHTML, html.EscapeString(siteName), html.EscapeString(unsubscribeURL))
	return Message{
		Subject: subject,
		HTML:    emailShell(siteName, body),
	}
}

// ContactNotificationEmail forwards a contact-form submission to the site
// owner.
func ContactNotificationEmail(siteName, fromName, fromEmail, message string) Message {
	body := fmt.Sprintf(`<p><strong>From:</strong> %s &lt;%s&gt;</p>
<p style="white-space:pre-wrap;">%s</p>`,
		html.EscapeString(fromName), html.EscapeString(fromEmail), html.EscapeString(message))
	return Message{
		Subject: fmt.Sprintf("Contact form: message from %s", fromName),
		HTML:    emailShell(siteName, body),
	}
}
