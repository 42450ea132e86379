package emailsvc

import (
	"fmt"
	"log"
	"net/mail"
	"strings"

	"github.com/tsedeniyafiseha/school-management-system/core"
)

// consoleService prints emails to stdout; used in DEV mode.
type consoleService struct {
	from mail.Address
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService(conf *core.Config) *consoleService {
	return &consoleService{from: conf.DefaultFromEmailAddr()}
}

func (svc consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go func() {
			if msg.HasRecipients() && msg.HasContent() {
				svc.print(*msg)
			}
		}()
	}
}

func (svc consoleService) print(msg core.EmailMessage) {
	var sb strings.Builder
	sb.WriteString("\n---------- EMAIL ----------\n")
	sb.WriteString(fmt.Sprintf("From: %s\n", svc.from.String()))
	sb.WriteString(fmt.Sprintf("To: %s\n", joinAddresses(msg.To)))
	if len(msg.Cc) > 0 {
		sb.WriteString(fmt.Sprintf("Cc: %s\n", joinAddresses(msg.Cc)))
	}
	sb.WriteString(fmt.Sprintf("Subject: %s\n\n", msg.Subject))
	if msg.TextContent != "" {
		sb.WriteString(msg.TextContent)
	} else {
		sb.WriteString(msg.HTMLContent)
	}
	sb.WriteString("\n---------------------------\n")
	log.Print(sb.String())
}

func joinAddresses(addrs []mail.Address) string {
	strs := make([]string, 0, len(addrs))
	for _, a := range addrs {
		strs = append(strs, a.String())
	}
	return strings.Join(strs, ", ")
}
