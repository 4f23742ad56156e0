// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// InvitationEmailData holds data for invitation email templates.
type InvitationEmailData struct {
	SiteName    string
	InviteeName string
	InviterName string
	Role        string
	ProjectName string // empty for team/speaker invitations
	AcceptLink  string
	ExpiresIn   string // e.g., "7 days"
}

// BuildInvitationEmail creates an invitation email with both HTML and text bodies.
func BuildInvitationEmail(data InvitationEmailData) Email {
	subject := fmt.Sprintf("You're invited to join %s", data.SiteName)
	if data.ProjectName != "" {
		subject = fmt.Sprintf("You're invited to the %q project on %s", data.ProjectName, data.SiteName)
	}
	return Email{
		To:       "", // Set by caller
		Subject:  subject,
		TextBody: buildInvitationText(data),
		HTMLBody: buildInvitationHTML(data),
		Params: map[string]string{
			"role":         data.Role,
			"project_name": data.ProjectName,
			"invite_link":  data.AcceptLink,
		},
	}
}

func buildInvitationText(data InvitationEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.InviteeName))
	if data.ProjectName != "" {
		buf.WriteString(fmt.Sprintf("%s invited you to join the %q project on %s as %s.\n\n",
			data.InviterName, data.ProjectName, data.SiteName, data.Role))
	} else {
		buf.WriteString(fmt.Sprintf("%s invited you to join %s as %s.\n\n",
			data.InviterName, data.SiteName, data.Role))
	}
	buf.WriteString("Accept the invitation here:\n")
	buf.WriteString(data.AcceptLink + "\n\n")
	buf.WriteString(fmt.Sprintf("This invitation expires in %s.\n\n", data.ExpiresIn))
	buf.WriteString("If you weren't expecting this, you can safely ignore this email.\n")
	return buf.String()
}

func buildInvitationHTML(data InvitationEmailData) string {
	tmpl := template.Must(template.New("invitation").Parse(invitationHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

// SpeakerInviteEmailData holds data for speaker invitation emails.
type SpeakerInviteEmailData struct {
	SiteName    string
	SpeakerName string
	InviterName string
	AcceptLink  string
}

// BuildSpeakerInviteEmail creates a speaker invitation email.
func BuildSpeakerInviteEmail(data SpeakerInviteEmailData) Email {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.SpeakerName))
	buf.WriteString(fmt.Sprintf("%s invited you to speak at events hosted on %s.\n\n",
		data.InviterName, data.SiteName))
	buf.WriteString("Create your account here:\n")
	buf.WriteString(data.AcceptLink + "\n")
	return Email{
		Subject:  fmt.Sprintf("Speaking invitation from %s", data.SiteName),
		TextBody: buf.String(),
		Params: map[string]string{
			"invite_link": data.AcceptLink,
		},
	}
}

const invitationHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Invitation</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 16px; color: #111827;">Hi {{.InviteeName}},</p>
              {{if .ProjectName}}
              <p style="margin: 0 0 24px; font-size: 15px; color: #374151;">{{.InviterName}} invited you to join the <strong>{{.ProjectName}}</strong> project as <strong>{{.Role}}</strong>.</p>
              {{else}}
              <p style="margin: 0 0 24px; font-size: 15px; color: #374151;">{{.InviterName}} invited you to join as <strong>{{.Role}}</strong>.</p>
              {{end}}
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.AcceptLink}}" style="display: inline-block; padding: 12px 32px; background-color: #4f46e5; color: #ffffff; font-size: 15px; font-weight: 600; text-decoration: none; border-radius: 6px;">Accept invitation</a>
                  </td>
                </tr>
              </table>
              <p style="margin: 24px 0 0; font-size: 13px; color: #6b7280;">This invitation expires in {{.ExpiresIn}}. If you weren't expecting it, you can safely ignore this email.</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
