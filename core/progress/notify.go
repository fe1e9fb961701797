package progress

import (
	"context"
	"fmt"
	"net/mail"
	texttmpl "text/template"

	"github.com/trezcool/maendeleo/core"
)

var overrideEmailTmpl = texttmpl.Must(texttmpl.New("progress/override").Parse(`Hi {{ .Name }},

Your faculty has updated "{{ .ItemName }}" to "{{ .Status }}".
Log in to review your progress tree.
`))

func init() {
	core.RegisterEmailTemplate(overrideEmailTmpl)
}

type overrideEmailContext struct {
	Name     string
	ItemName string
	Status   string
}

// notifyOverride emails the owning student about a faculty override. Sending
// is asynchronous and best-effort: a lookup failure or an email-less student
// is logged and skipped, never failing the override itself.
func (svc *Service) notifyOverride(ctx context.Context, item Item) {
	usr, err := svc.usrRepo.GetUserByID(ctx, item.StudentID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("override notification skipped for item %s: %v", item.ID, err), err)
		return
	}
	if usr.Email == "" {
		return
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      fmt.Sprintf("%q is now %s", item.Name, item.Status),
		TemplateName: overrideEmailTmpl.Name(),
		TemplateContext: overrideEmailContext{
			Name:     usr.Name,
			ItemName: item.Name,
			Status:   item.Status,
		},
	})
}
