package service

import (
	"bytes"
	"html/template"
)

const layout = `<!doctype html>
<html>
<body style="font-family:Arial,sans-serif;background:#f6f6f6;padding:24px">
<div style="max-width:560px;margin:0 auto;background:#fff;border-radius:8px;padding:24px">
<p>Hi {{.Username}},</p>
{{block "body" .}}{{end}}
<p style="color:#888;font-size:12px">If you didn't ask for this you can ignore this email.</p>
</div>
</body>
</html>`

const verificationBody = `{{define "body"}}
<p>Please confirm your email address.</p>
{{if .Link}}<p><a href="{{.Link}}" style="background:#e4572e;color:#fff;padding:10px 16px;border-radius:4px;text-decoration:none">Verify email</a></p>
<p>The link expires in {{.LinkMinutes}} minutes.</p>{{end}}
{{if .Code}}<p>Or enter this code: <strong style="font-size:20px;letter-spacing:4px">{{.Code}}</strong></p>
<p>The code expires in {{.CodeMinutes}} minutes.</p>{{end}}
{{end}}`

const resetBody = `{{define "body"}}
<p>We received a request to reset your password.</p>
{{if .Link}}<p><a href="{{.Link}}" style="background:#e4572e;color:#fff;padding:10px 16px;border-radius:4px;text-decoration:none">Reset password</a></p>
<p>The link expires in {{.LinkMinutes}} minutes.</p>{{end}}
{{if .Code}}<p>Or enter this code: <strong style="font-size:20px;letter-spacing:4px">{{.Code}}</strong></p>
<p>The code expires in {{.CodeMinutes}} minutes.</p>{{end}}
{{end}}`

const emailChangedBody = `{{define "body"}}
<p>The email address on your account was changed to <strong>{{.NewEmail}}</strong>.</p>
<p>If this wasn't you, contact support right away.</p>
{{end}}`

var (
	verificationTmpl = template.Must(template.Must(template.New("verification").Parse(layout)).Parse(verificationBody))
	resetTmpl        = template.Must(template.Must(template.New("reset").Parse(layout)).Parse(resetBody))
	emailChangedTmpl = template.Must(template.Must(template.New("email_changed").Parse(layout)).Parse(emailChangedBody))
)

type mailData struct {
	Username    string
	Link        string
	LinkMinutes int
	Code        string
	CodeMinutes int
	NewEmail    string
}

func render(t *template.Template, d mailData) (string, error) {
	var buf bytes.Buffer

	if err := t.Execute(&buf, d); err != nil {
		return "", err
	}

	return buf.String(), nil
}
