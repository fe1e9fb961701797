package core

import (
	"bytes"
	"net/mail"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

var (
	emailTmplMu sync.RWMutex
	emailTmpls  = make(map[string]*texttmpl.Template)
)

// RegisterEmailTemplate registers a named text template for use by
// EmailMessage.Render. Domain packages register theirs at init time.
func RegisterEmailTemplate(tmpl *texttmpl.Template) {
	emailTmplMu.Lock()
	defer emailTmplMu.Unlock()
	emailTmpls[tmpl.Name()] = tmpl
}

type (
	// EmailService sends messages asynchronously; implementations never block
	// the calling request.
	EmailService interface {
		SendMessages(messages ...*EmailMessage)
	}

	EmailMessage struct {
		To              []mail.Address
		Subject         string
		TemplateName    string
		TemplateContext interface{}
		BodyStr         string
	}
)

// Render materializes BodyStr from the registered template, if any.
// A message constructed with a literal BodyStr renders as-is.
func (m *EmailMessage) Render() error {
	if m.TemplateName == "" {
		return nil
	}
	emailTmplMu.RLock()
	tmpl, ok := emailTmpls[m.TemplateName]
	emailTmplMu.RUnlock()
	if !ok {
		return errors.Errorf("email template %q not registered", m.TemplateName)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, m.TemplateContext); err != nil {
		return errors.Wrapf(err, "executing email template %q", m.TemplateName)
	}
	m.BodyStr = buf.String()
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }

func (m *EmailMessage) HasContent() bool { return m.BodyStr != "" || m.TemplateName != "" }
