package world

import "testing"

func TestEntityIDsNeverReused(t *testing.T) {
	st := NewState()
	p := &Player{Name: "a"}
	st.AddPlayer(p)
	first := p.ID
	st.RemovePlayer(first)
	st.DrainChanges()

	q := &Player{Name: "b"}
	st.AddPlayer(q)
	if q.ID == first {
		t.Fatalf("entity id %d reused after removal", first)
	}
	if q.ID <= first {
		t.Fatalf("ids must be monotonic: got %d after %d", q.ID, first)
	}
}

func TestVersionBumpsOnEveryMutation(t *testing.T) {
	st := NewState()
	p := &Player{}
	st.AddPlayer(p)

	v1 := st.Version(p.ID)
	st.TouchPlayer(p.ID)
	v2 := st.Version(p.ID)
	st.TouchPlayer(p.ID)
	v3 := st.Version(p.ID)

	if !(v1 < v2 && v2 < v3) {
		t.Fatalf("versions not monotonic: %d, %d, %d", v1, v2, v3)
	}
}

func TestDrainCollapsesUpdates(t *testing.T) {
	st := NewState()
	p := &Player{}
	st.AddPlayer(p)
	st.DrainChanges()

	st.TouchPlayer(p.ID)
	st.TouchPlayer(p.ID)
	st.TouchPlayer(p.ID)

	changes := st.DrainChanges()
	if len(changes) != 1 {
		t.Fatalf("expected one collapsed update, got %d changes", len(changes))
	}
	if changes[0].Op != OpUpdate || changes[0].ID != p.ID {
		t.Fatalf("unexpected change %+v", changes[0])
	}
}

func TestDrainOrdersSpawnUpdateDespawn(t *testing.T) {
	st := NewState()
	p := &Player{}
	st.AddPlayer(p)
	st.TouchPlayer(p.ID)
	st.RemovePlayer(p.ID)

	changes := st.DrainChanges()
	if len(changes) != 2 {
		t.Fatalf("expected spawn then despawn, got %d changes: %+v", len(changes), changes)
	}
	if changes[0].Op != OpSpawn {
		t.Fatalf("first change %+v, want spawn", changes[0])
	}
	if changes[1].Op != OpDespawn {
		t.Fatalf("second change %+v, want despawn", changes[1])
	}
}

func TestDrainFirstTouchOrderAcrossEntities(t *testing.T) {
	st := NewState()
	a := &Player{}
	b := &Player{}
	st.AddPlayer(a)
	st.AddPlayer(b)
	// Touching a again must not move it behind b.
	st.TouchPlayer(a.ID)

	changes := st.DrainChanges()
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	if changes[0].ID != a.ID || changes[1].ID != b.ID {
		t.Fatalf("first-touch order violated: %+v", changes)
	}
}

func TestDrainClearsLog(t *testing.T) {
	st := NewState()
	st.AddMonster(&Monster{})
	if got := st.DrainChanges(); len(got) != 1 {
		t.Fatalf("first drain: %d changes", len(got))
	}
	if got := st.DrainChanges(); got != nil {
		t.Fatalf("second drain not empty: %+v", got)
	}
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	st := NewState()
	st.RemovePlayer(42)
	st.RemoveMonster(42)
	st.RemoveLoot(42)
	st.RemoveProjectile(42)
	if got := st.DrainChanges(); got != nil {
		t.Fatalf("removing unknown ids recorded changes: %+v", got)
	}
}

func TestPlayerBySession(t *testing.T) {
	st := NewState()
	p := &Player{SessionID: 9}
	st.AddPlayer(p)
	if got := st.PlayerBySession(9); got != p {
		t.Fatalf("PlayerBySession(9) = %v", got)
	}
	if got := st.PlayerBySession(10); got != nil {
		t.Fatalf("PlayerBySession(10) = %v, want nil", got)
	}
}
