package emailsvc

import (
	"sync"

	"github.com/tsedeniyafiseha/school-management-system/core"
)

// DummyService captures sent messages for inspection in tests.
type DummyService struct {
	mu   sync.Mutex
	sent []*core.EmailMessage
}

var _ core.EmailService = (*DummyService)(nil)

func NewDummyService() *DummyService { return &DummyService{} }

func (svc *DummyService) SendMessages(messages ...*core.EmailMessage) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.sent = append(svc.sent, messages...)
}

func (svc *DummyService) Sent() []*core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]*core.EmailMessage(nil), svc.sent...)
}
