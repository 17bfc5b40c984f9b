package notify

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"strings"

	"github.com/libreria-pagine/turni/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var embedded embed.FS

// Envelope 是队列中的消息，Data 根据 Type 延迟解码
type Envelope struct {
	Type string          `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

type kind struct {
	subject  string
	template string
	data     func() any
}

var kinds = map[string]kind{
	domain.MailTypeCreateUser: {
		subject:  "Libreria Pagine - Il tuo account",
		template: "create_user.html",
		data:     func() any { return &domain.CreateUserMailData{} },
	},
	domain.MailTypeResetPassword: {
		subject:  "Libreria Pagine - Reimpostazione password",
		template: "reset_password.html",
		data:     func() any { return &domain.ResetPasswordMailData{} },
	},
	domain.MailTypeShiftPlanGenerated: {
		subject:  "Libreria Pagine - Turni di %s",
		template: "shift_plan_generated.html",
		data:     func() any { return &domain.ShiftPlanGeneratedMailData{} },
	},
}

type Composer struct {
	from      string
	templates *template.Template
}

// NewComposer 使用 dir 中的模板，dir 为空时使用内置模板
func NewComposer(from, dir string) (*Composer, error) {
	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, err
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dir)
	}

	tmpl, err := template.New("mail").Funcs(template.FuncMap{
		"join": strings.Join,
	}).ParseFS(fsys, "*.html")
	if err != nil {
		return nil, fmt.Errorf("impossibile leggere i modelli delle email: %w", err)
	}

	return &Composer{
		from:      from,
		templates: tmpl,
	}, nil
}

func (c *Composer) render(env Envelope) (string, string, error) {
	k, ok := kinds[env.Type]
	if !ok {
		return "", "", fmt.Errorf("tipo di email non supportato: %s", env.Type)
	}

	data := k.data()
	if err := json.Unmarshal(env.Data, data); err != nil {
		return "", "", err
	}

	subject := k.subject
	if plan, ok := data.(*domain.ShiftPlanGeneratedMailData); ok {
		subject = fmt.Sprintf(subject, plan.Month)
	}

	var body strings.Builder
	if err := c.templates.ExecuteTemplate(&body, k.template, data); err != nil {
		return "", "", err
	}

	return subject, body.String(), nil
}

// Compose 把队列中的消息转换为可以直接发送的邮件
func (c *Composer) Compose(raw []byte) (*mail.Msg, error) {
	env := Envelope{}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	subject, body, err := c.render(env)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(c.from); err != nil {
		return nil, err
	}
	if err := msg.To(env.To); err != nil {
		return nil, err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	return msg, nil
}
