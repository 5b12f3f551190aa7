package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/veracity-ai/veracity/core"
)

// MockAgent stands in for pipeline stages in composite agent tests.
type MockAgent struct {
	mock.Mock
	name string
}

func NewMockAgent(name string) *MockAgent {
	return &MockAgent{name: name}
}

func (m *MockAgent) Name() string { return m.name }

func (m *MockAgent) Run(runCtx *core.RunContext) error {
	args := m.Called(runCtx)
	return args.Error(0)
}

func (m *MockAgent) Start(runCtx *core.RunContext) error {
	args := m.Called(runCtx)
	return args.Error(0)
}

func (m *MockAgent) Stop(runCtx *core.RunContext) error {
	args := m.Called(runCtx)
	return args.Error(0)
}

func (m *MockAgent) SubAgents() []core.Agent {
	args := m.Called()
	return args.Get(0).([]core.Agent)
}

func (m *MockAgent) Description() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockAgent) SetSubAgents(children ...core.Agent) error {
	args := m.Called(children)
	return args.Error(0)
}

func (m *MockAgent) Parent() core.Agent {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(core.Agent)
}

func (m *MockAgent) FindAgent(name string) core.Agent {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(core.Agent)
}

func TestNewEventID(t *testing.T) {
	eventID := core.NewID()
	assert.NotEmpty(t, eventID)
	assert.Len(t, eventID, 36) // UUID length
}

func TestBaseAgentHierarchy(t *testing.T) {
	pipeline := NewSequentialAgent("Pipeline")
	research := NewSequentialAgent("Research")

	assert.NoError(t, pipeline.SetSubAgents(research))
	assert.Len(t, pipeline.SubAgents(), 1)
	assert.NotNil(t, research.Parent())
	assert.Equal(t, "Pipeline", research.Parent().Name())

	found := pipeline.FindAgent("Research")
	assert.NotNil(t, found)
	assert.Equal(t, "Research", found.Name())

	assert.Nil(t, pipeline.FindAgent("missing"))
}
