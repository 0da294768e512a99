package registry

import (
	"testing"

	"github.com/irdkwmnsb/screencast-relay/internal/api"
	"github.com/irdkwmnsb/screencast-relay/internal/domain"
	"github.com/irdkwmnsb/screencast-relay/internal/sockets/sockettest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func register(t *testing.T, r *Registry, wire string) (*Session, *sockettest.Recorder) {
	t.Helper()
	socket := sockettest.New()
	session := r.Connect(socket)
	msg, err := api.Decode([]byte(`{"type":"` + wire + `"}`))
	require.NoError(t, err)
	result, err := r.Classify(session, msg)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAssigned, result)
	return session, socket
}

func TestClassifyRegistersAndAcks(t *testing.T) {
	r := New(ModeSignalling)

	producer, producerSocket := register(t, r, "gstreamer")
	viewer, viewerSocket := register(t, r, "client")

	assert.Equal(t, domain.RoleProducer, producer.Role())
	assert.Equal(t, domain.RoleViewer, viewer.Role())
	assert.Equal(t, []string{`{"type":"ack","role":"gstreamer"}`}, producerSocket.Payloads())
	assert.Equal(t, []string{`{"type":"ack","role":"client"}`}, viewerSocket.Payloads())

	assert.Equal(t, viewerSocket, r.Counterpart(producerSocket, domain.RoleProducer))
	assert.Equal(t, producerSocket, r.Counterpart(viewerSocket, domain.RoleViewer))
	assert.Equal(t, Status{Mode: "signalling", Producer: true, Viewers: 1}, r.Status())
}

func TestClassifyFirstMessageMustRegister(t *testing.T) {
	r := New(ModeSignalling)
	socket := sockettest.New()
	session := r.Connect(socket)

	_, err := r.Classify(session, api.NewReady())
	assert.ErrorIs(t, err, domain.ErrProtocolViolation)
	assert.Equal(t, domain.RoleUnassigned, session.Role())
	assert.Empty(t, socket.Frames())
	assert.Nil(t, r.Producer())
}

func TestClassifyPassthroughAfterRegistration(t *testing.T) {
	r := New(ModeSignalling)
	session, _ := register(t, r, "client")

	result, err := r.Classify(session, api.NewReady())
	require.NoError(t, err)
	assert.Equal(t, domain.Passthrough, result)
}

func TestClassifyRepeatedRegistrationIsIgnored(t *testing.T) {
	r := New(ModeSignalling)
	session, socket := register(t, r, "client")

	_, err := r.Classify(session, api.NewRegistration(domain.RoleProducer))
	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
	assert.Equal(t, domain.RoleViewer, session.Role())
	assert.Nil(t, r.Producer())
	assert.Len(t, socket.Frames(), 1)
}

func TestReplacementOrphansPreviousOccupant(t *testing.T) {
	r := New(ModeSignalling)
	_, viewerSocket := register(t, r, "client")
	oldProducer, oldSocket := register(t, r, "gstreamer")
	_, newSocket := register(t, r, "gstreamer")

	assert.Equal(t, newSocket, r.Producer())
	assert.False(t, oldSocket.IsClosed())
	assert.Nil(t, r.Counterpart(oldSocket, domain.RoleProducer))
	assert.Equal(t, viewerSocket, r.Counterpart(newSocket, domain.RoleProducer))
	assert.Equal(t, newSocket, r.Counterpart(viewerSocket, domain.RoleViewer))

	// the orphan leaving must not clear the slot it no longer holds
	r.Disconnect(oldProducer)
	assert.Equal(t, newSocket, r.Producer())
}

func TestOnlyLatestRegistrationIsCurrent(t *testing.T) {
	r := New(ModeSignalling)
	var all []*sockettest.Recorder
	for i := 0; i < 5; i++ {
		_, socket := register(t, r, "client")
		all = append(all, socket)
	}
	for i, socket := range all {
		assert.Equal(t, i == len(all)-1, r.IsCurrent(socket, domain.RoleViewer))
	}
}

func TestDisconnectVacatesSlot(t *testing.T) {
	r := New(ModeSignalling)
	producer, producerSocket := register(t, r, "gstreamer")
	_, viewerSocket := register(t, r, "client")

	r.Disconnect(producer)

	assert.Nil(t, r.Producer())
	assert.Nil(t, r.Counterpart(viewerSocket, domain.RoleViewer))
	assert.False(t, r.IsCurrent(producerSocket, domain.RoleProducer))
	assert.Equal(t, Status{Mode: "signalling", Producer: false, Viewers: 1}, r.Status())
}

func TestDisconnectUnassignedIsNoop(t *testing.T) {
	r := New(ModeSignalling)
	_, viewerSocket := register(t, r, "client")

	r.Disconnect(r.Connect(sockettest.New()))
	assert.Equal(t, viewerSocket, r.Viewers()[0])
}

func TestBroadcastModeKeepsViewerSet(t *testing.T) {
	r := New(ModeBroadcast)
	a, aSocket := register(t, r, "client")
	_, bSocket := register(t, r, "client")
	_, producerSocket := register(t, r, "gstreamer")

	assert.ElementsMatch(t, []*sockettest.Recorder{aSocket, bSocket}, recorders(r))
	assert.True(t, r.IsCurrent(aSocket, domain.RoleViewer))
	assert.Nil(t, r.Counterpart(producerSocket, domain.RoleProducer))
	assert.Equal(t, Status{Mode: "broadcast", Producer: true, Viewers: 2}, r.Status())

	r.Disconnect(a)
	assert.ElementsMatch(t, []*sockettest.Recorder{bSocket}, recorders(r))
}

func recorders(r *Registry) []*sockettest.Recorder {
	var result []*sockettest.Recorder
	for _, s := range r.Viewers() {
		result = append(result, s.(*sockettest.Recorder))
	}
	return result
}

func TestClassifyAcksBeforeTakingSlot(t *testing.T) {
	r := New(ModeSignalling)
	socket := sockettest.New()
	session := r.Connect(socket)

	heldDuringAck := true
	socket.BeforeSend(func() { heldDuringAck = r.IsCurrent(socket, domain.RoleProducer) })

	_, err := r.Classify(session, api.NewRegistration(domain.RoleProducer))
	require.NoError(t, err)
	assert.False(t, heldDuringAck)
	assert.True(t, r.IsCurrent(socket, domain.RoleProducer))
}
