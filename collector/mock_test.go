package collector

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/azure/exposure-reporter/azcli"
	"github.com/azure/exposure-reporter/types"
)

type mockCliClient struct {
	Outputs map[string]string
	Errors  map[string]error
	Calls   []string
	mtx     sync.Mutex
}

func (m *mockCliClient) Execute(ctx context.Context, args []string) (*azcli.Result, error) {
	command := strings.Join(args, " ")
	m.mtx.Lock()
	m.Calls = append(m.Calls, command)
	m.mtx.Unlock()

	for prefix, err := range m.Errors {
		if strings.HasPrefix(command, prefix) {
			return nil, err
		}
	}
	for prefix, output := range m.Outputs {
		if strings.HasPrefix(command, prefix) {
			return &azcli.Result{Output: json.RawMessage(output)}, nil
		}
	}
	return &azcli.Result{Output: json.RawMessage("null")}, nil
}

func (m *mockCliClient) SetSubscription(ctx context.Context, subscription types.SubscriptionContext) error {
	return nil
}

func (m *mockCliClient) callsWithPrefix(prefix string) []string {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	calls := []string{}
	for _, call := range m.Calls {
		if strings.HasPrefix(call, prefix) {
			calls = append(calls, call)
		}
	}
	return calls
}

type mockIdentityLister struct {
	Identities map[types.ResourceKind][]types.ResourceIdentity
	Err        error
	Called     bool
}

func (m *mockIdentityLister) ListIdentities(ctx context.Context, definition types.KindDefinition, subscription types.SubscriptionContext) ([]types.ResourceIdentity, error) {
	m.Called = true
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Identities[definition.Kind], nil
}

var testSubscription = types.SubscriptionContext{SubscriptionID: "d8eaebd9-e25f-48b1-b7fe-95d296133cfa"}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func definitionFor(kind types.ResourceKind) types.KindDefinition {
	for _, definition := range DefaultKindDefinitions() {
		if definition.Kind == kind {
			return definition
		}
	}
	panic("unknown kind " + kind)
}
