package core

import "testing"

func TestRunContext_EmitEventStateAndArtifacts(t *testing.T) {
	rc, emitCh := newRunContextForTest()
	rc.SetState("foo", "bar")
	rc.AddArtifact("file1")
	ev := NewEvent(rc.RunID, "agent1")
	if err := rc.EmitEvent(ev); err != nil {
		t.Fatalf("EmitEvent error: %v", err)
	}
	received := <-emitCh
	if received.Actions.StateDelta["foo"].(string) != "bar" {
		t.Fatalf("State delta missing: %+v", received.Actions)
	}
	if received.Actions.ArtifactDelta["file1"] != 1 {
		t.Fatalf("Artifact delta missing: %+v", received.Actions)
	}
	if len(rc.StateDelta) != 0 || len(rc.Artifacts) != 0 {
		t.Fatal("StateDelta & Artifacts should clear after emit")
	}
}

func TestRunContext_CommitStateDelta(t *testing.T) {
	rc, _ := newRunContextForTest()
	sSvc := rc.SessionStore.(*mockSessionStore)
	rc.SetState("k1", 123)
	if err := rc.CommitStateDelta(); err != nil {
		t.Fatalf("CommitStateDelta error: %v", err)
	}
	if sSvc.applied == nil || sSvc.applied[rc.SessionID]["k1"].(int) != 123 {
		t.Fatalf("State delta not applied: %+v", sSvc.applied)
	}
	if len(rc.StateDelta) != 0 {
		t.Error("StateDelta should be cleared after commit")
	}
}

func TestRunContext_CloneIsolation(t *testing.T) {
	rc, _ := newRunContextForTest()
	rc.SetState("a", 1)
	rc.AddArtifact("f1")
	clone := rc.Clone()
	if clone.Session != rc.Session {
		t.Error("Session pointer should be shared")
	}
	clone.SetState("b", 2)
	if _, exists := rc.StateDelta["b"]; exists {
		t.Error("Original should not have clone's new state")
	}
	if v, _ := clone.GetState("a"); v.(int) != 1 {
		t.Error("Clone missing original state")
	}
}

func TestRunContext_WithBranch(t *testing.T) {
	rc, _ := newRunContextForTest()
	branched := rc.WithBranch("Root.Child")
	if branched.Branch != "Root.Child" {
		t.Errorf("Expected branch Root.Child, got %s", branched.Branch)
	}
	if rc.Branch != "" {
		t.Error("Original branch should remain empty")
	}
}
