package msgchains

import "testing"

func newTestChains(own string) *MessageChains[DeviceID] {
	return New[DeviceID](DeviceID(own), NewSha256Hasher[DeviceID]())
}

func abRecipients() []DeviceID {
	r := []DeviceID{"1", "0"}
	SortRecipients(r)
	return r
}

// S1 — two-device baseline.
func TestTwoDeviceBaseline(t *testing.T) {
	alice := newTestChains("0")
	bob := newTestChains("1")
	recipients := abRecipients()

	if _, ok := alice.ValidationPayload("1"); ok {
		t.Fatal("alice should have no validation payload for bob yet")
	}

	alice.SendMessage([]byte("Hi Bob!"), recipients)

	if _, err := bob.InsertMessage("0", []byte("Hi Bob!"), recipients); err != nil {
		t.Fatalf("bob insert message 0: %v", err)
	}
	if _, err := alice.InsertMessage("0", []byte("Hi Bob!"), recipients); err != nil {
		t.Fatalf("alice insert message 0: %v", err)
	}

	bob.SendMessage([]byte("Hey Alice, how are you?"), recipients)
	vp, ok := bob.ValidationPayload("0")
	if !ok || vp.Seq != 0 {
		t.Fatalf("bob validation payload for alice = (%v, %v), want seq 0", vp, ok)
	}

	if _, err := bob.InsertMessage("1", []byte("Hey Alice, how are you?"), recipients); err != nil {
		t.Fatalf("bob insert message 1: %v", err)
	}

	trimmed, err := alice.ValidateTrimChain("1", &vp)
	if err != nil {
		t.Fatalf("alice validate_trim_chain(bob): %v", err)
	}
	if trimmed != 0 {
		t.Fatalf("trimmed = %d, want 0", trimmed)
	}
	if _, err := alice.InsertMessage("1", []byte("Hey Alice, how are you?"), recipients); err != nil {
		t.Fatalf("alice insert message 1: %v", err)
	}

	alice.SendMessage([]byte("I'm good, thanks for asking!"), recipients)
	vp2, ok := alice.ValidationPayload("1")
	if !ok || vp2.Seq != 1 {
		t.Fatalf("alice validation payload for bob = (%v, %v), want seq 1", vp2, ok)
	}

	if _, err := alice.InsertMessage("0", []byte("I'm good, thanks for asking!"), recipients); err != nil {
		t.Fatalf("alice insert message 2: %v", err)
	}

	trimmed2, err := bob.ValidateTrimChain("0", &vp2)
	if err != nil {
		t.Fatalf("bob validate_trim_chain(alice): %v", err)
	}
	if trimmed2 != 1 {
		t.Fatalf("trimmed2 = %d, want 1", trimmed2)
	}
	if _, err := bob.InsertMessage("0", []byte("I'm good, thanks for asking!"), recipients); err != nil {
		t.Fatalf("bob insert message 2: %v", err)
	}
}

// twoDeviceBase replays S1 and returns the two chains for further scenarios.
func twoDeviceBase(t *testing.T) (*MessageChains[DeviceID], *MessageChains[DeviceID]) {
	t.Helper()
	alice := newTestChains("0")
	bob := newTestChains("1")
	recipients := abRecipients()

	alice.SendMessage([]byte("Hi Bob!"), recipients)
	mustInsert(t, bob, "0", "Hi Bob!", recipients)
	mustInsert(t, alice, "0", "Hi Bob!", recipients)

	bob.SendMessage([]byte("Hey Alice, how are you?"), recipients)
	vp, _ := bob.ValidationPayload("0")
	mustInsert(t, bob, "1", "Hey Alice, how are you?", recipients)
	if _, err := alice.ValidateTrimChain("1", &vp); err != nil {
		t.Fatalf("validate_trim_chain: %v", err)
	}
	mustInsert(t, alice, "1", "Hey Alice, how are you?", recipients)

	alice.SendMessage([]byte("I'm good, thanks for asking!"), recipients)
	vp2, _ := alice.ValidationPayload("1")
	mustInsert(t, alice, "0", "I'm good, thanks for asking!", recipients)
	if _, err := bob.ValidateTrimChain("0", &vp2); err != nil {
		t.Fatalf("validate_trim_chain: %v", err)
	}
	mustInsert(t, bob, "0", "I'm good, thanks for asking!", recipients)

	return alice, bob
}

func mustInsert(t *testing.T, m *MessageChains[DeviceID], sender DeviceID, message string, recipients []DeviceID) {
	t.Helper()
	if _, err := m.InsertMessage(sender, []byte(message), recipients); err != nil {
		t.Fatalf("insert message %q from %v: %v", message, sender, err)
	}
}

// S2 — server drops a concurrent message.
func TestServerDropsConcurrentMessage(t *testing.T) {
	alice, bob := twoDeviceBase(t)
	recipients := abRecipients()

	alice.SendMessage([]byte("Hey Bob, please ignore the contents of the next message:"), recipients)
	vp1, _ := alice.ValidationPayload("1")
	if vp1.Seq != 2 {
		t.Fatalf("vp1.Seq = %d, want 2", vp1.Seq)
	}

	alice.SendMessage([]byte("We're no longer friends."), recipients)
	vp2, _ := alice.ValidationPayload("1")
	if vp2.Seq != 2 {
		t.Fatalf("vp2.Seq = %d, want 2 (second concurrent message, not yet inserted)", vp2.Seq)
	}

	mustInsert(t, alice, "0", "Hey Bob, please ignore the contents of the next message:", recipients)
	mustInsert(t, alice, "0", "We're no longer friends.", recipients)

	trimmed, err := bob.ValidateTrimChain("0", &vp2)
	if err != nil {
		t.Fatalf("bob validate_trim_chain(alice, vp2): %v", err)
	}
	if trimmed != 1 {
		t.Fatalf("trimmed = %d, want 1", trimmed)
	}
	mustInsert(t, bob, "0", "We're no longer friends.", recipients)

	bob.SendMessage([]byte("What have I done to you?"), recipients)
	vp3, _ := bob.ValidationPayload("0")
	if vp3.Seq != 3 {
		t.Fatalf("vp3.Seq = %d, want 3", vp3.Seq)
	}
	mustInsert(t, bob, "1", "What have I done to you?", recipients)

	_, err = alice.ValidateTrimChain("1", &vp3)
	if err != ErrInvariantViolated {
		t.Fatalf("alice validate_trim_chain(bob, vp3) = %v, want ErrInvariantViolated", err)
	}
}

// S6 — own-message tamper detection. A recipient set with only two devices
// has a unique ascending ordering, so a server that actually permuted it
// would trip InvalidRecipientsOrder before the own-message comparison is
// ever reached; to exercise that comparison specifically, the tampered
// echo substitutes a different (but still validly ascending, still
// self-including) recipient set, exactly like the server silently handing
// Alice's message to the wrong peer.
func TestOwnMessageTamperDetection(t *testing.T) {
	alice := newTestChains("0")
	recipients := abRecipients()

	alice.SendMessage([]byte("A"), recipients)
	alice.SendMessage([]byte("B"), recipients)

	tampered := []DeviceID{"0", "2"}
	_, err := alice.InsertMessage("0", []byte("A"), tampered)
	if err != ErrOwnMessageInvalidReordered {
		t.Fatalf("tampered echo error = %v, want ErrOwnMessageInvalidReordered", err)
	}

	if len(alice.pendingMessages) != 3 {
		t.Fatalf("pendingMessages length = %d, want 3 (unchanged)", len(alice.pendingMessages))
	}
}

func TestTooFewRecipients(t *testing.T) {
	alice := newTestChains("0")
	_, err := alice.InsertMessage("0", []byte("hi"), nil)
	if err != ErrTooFewRecipients {
		t.Fatalf("err = %v, want ErrTooFewRecipients", err)
	}
}

// A self-only recipient set is non-empty and includes self, so it is
// accepted: the message simply has no peer recipients and creates no peer
// chain entries.
func TestSelfOnlyRecipientsAccepted(t *testing.T) {
	alice := newTestChains("0")
	alice.SendMessage([]byte("note to self"), []DeviceID{"0"})
	localSeq, err := alice.InsertMessage("0", []byte("note to self"), []DeviceID{"0"})
	if err != nil {
		t.Fatalf("self-only insert_message: %v", err)
	}
	if localSeq != 0 {
		t.Fatalf("localSeq = %d, want 0", localSeq)
	}
}

func TestMissingSelfRecipient(t *testing.T) {
	alice := newTestChains("0")
	_, err := alice.InsertMessage("1", []byte("hi"), []DeviceID{"1", "2"})
	if err != ErrMissingSelfRecipient {
		t.Fatalf("err = %v, want ErrMissingSelfRecipient", err)
	}
}

func TestInvalidRecipientsOrder(t *testing.T) {
	alice := newTestChains("0")
	_, err := alice.InsertMessage("1", []byte("hi"), []DeviceID{"1", "0"})
	if err != ErrInvalidRecipientsOrder {
		t.Fatalf("err = %v, want ErrInvalidRecipientsOrder", err)
	}
}

func TestUnknownDeviceQuery(t *testing.T) {
	alice := newTestChains("0")
	if _, err := alice.DeviceValidatedEvent("9", 0); err != ErrUnknownDevice {
		t.Fatalf("err = %v, want ErrUnknownDevice", err)
	}
}
