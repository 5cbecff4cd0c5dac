package notifier

import (
	htmltemplate "html/template"
	"strings"
	"text/template"

	"github.com/anicoll/danfoss-alerts/internal/pkg/model"
)

const defaultGreetingName = "Anna"

var funcs = template.FuncMap{"celsius": model.FormatCelsius}

var (
	subjectTmpl = template.Must(template.New("subject").Funcs(funcs).Parse(
		`Danfoss Temperature Warning: {{celsius .Threshold}}°C Threshold Exceeded`))

	textTmpl = template.Must(template.New("text").Funcs(funcs).Parse(`Hello {{.Greeting}},

This is an automated notification from your Danfoss Floor Heating Monitoring System.

The floor temperature has exceeded the threshold of {{celsius .Threshold}}°C.

Devices with elevated temperatures:
{{range $i, $d := .Devices}}{{if $i}}
{{end}}  - {{$d.Name}} (ID: {{$d.ID}}): {{celsius $d.TemperatureCelsius}}°C{{end}}

Please check your Danfoss floor heating system when convenient.

Best regards,
Danfoss Temperature Monitoring Service

---
This is an automated message. Please do not reply to this email.`))

	htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Funcs(htmltemplate.FuncMap(funcs)).Parse(`<html>
<head>
  <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #d9534f;">Danfoss Temperature Warning</h2>
    <p>Hello {{.Greeting}},</p>
    <p>This is an automated notification from your Danfoss Floor Heating Monitoring System.</p>
    <p>The floor temperature has exceeded the threshold of <strong>{{celsius .Threshold}}°C</strong>.</p>

    <h3>Devices with elevated temperatures:</h3>
    <ul>
{{range .Devices}}<li><strong>{{.Name}}</strong>: {{celsius .TemperatureCelsius}}°C</li>
{{end}}    </ul>

    <p>Please check your Danfoss floor heating system when convenient.</p>

    <p>Best regards,<br>
    Danfoss Temperature Monitoring Service</p>

    <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
    <p style="font-size: 12px; color: #999;">
      This is an automated message. Please do not reply to this email.
    </p>
  </div>
</body>
</html>`))

	chatTmpl = template.Must(template.New("chat").Funcs(funcs).Parse(`🌡️ *Danfoss Temperature Warning*

Hello {{.Greeting}},

Floor temperature exceeded {{celsius .Threshold}}°C threshold.

*Devices with elevated temperatures:*
{{range $i, $d := .Devices}}{{if $i}}
{{end}}• {{$d.Name}}: {{celsius $d.TemperatureCelsius}}°C{{end}}

Please check your Danfoss floor heating system when convenient.`))
)

type alertData struct {
	Greeting  string
	Threshold float64
	Devices   []model.DeviceAboveThreshold
}

func render(execute func(*strings.Builder) error) (string, error) {
	var sb strings.Builder
	if err := execute(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func buildSubject(data alertData) (string, error) {
	return render(func(sb *strings.Builder) error { return subjectTmpl.Execute(sb, data) })
}

func buildBodyText(data alertData) (string, error) {
	return render(func(sb *strings.Builder) error { return textTmpl.Execute(sb, data) })
}

func buildBodyHTML(data alertData) (string, error) {
	return render(func(sb *strings.Builder) error { return htmlTmpl.Execute(sb, data) })
}

func buildChatMessage(data alertData) (string, error) {
	return render(func(sb *strings.Builder) error { return chatTmpl.Execute(sb, data) })
}
