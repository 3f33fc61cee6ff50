package store

import "testing"

func setupRoomTestDB(t *testing.T) (*RoomStore, *UserStore) {
	t.Helper()
	db := setupTestDB(t)
	return NewRoomStore(db), NewUserStore(db)
}

func TestRoomCreateAddsCreator(t *testing.T) {
	rs, us := setupRoomTestDB(t)

	alice, _ := us.Create("alice@example.com", "Alice", "hash")
	room, err := rs.Create("101", "roomhash", alice.ID)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if room.Name != "101" {
		t.Errorf("name = %q, want %q", room.Name, "101")
	}
	if room.CreatedBy == nil || *room.CreatedBy != alice.ID {
		t.Errorf("created_by = %v, want %d", room.CreatedBy, alice.ID)
	}

	ok, err := rs.IsMember(room.ID, alice.ID)
	if err != nil {
		t.Fatalf("is member: %v", err)
	}
	if !ok {
		t.Error("creator should be a member")
	}
}

func TestRoomDuplicateName(t *testing.T) {
	rs, us := setupRoomTestDB(t)

	alice, _ := us.Create("alice@example.com", "Alice", "hash")
	if _, err := rs.Create("101", "h", alice.ID); err != nil {
		t.Fatalf("create room: %v", err)
	}
	if _, err := rs.Create("101", "h", alice.ID); err == nil {
		t.Fatal("expected error for duplicate room name")
	}
}

func TestRoomGetByName(t *testing.T) {
	rs, us := setupRoomTestDB(t)

	alice, _ := us.Create("alice@example.com", "Alice", "hash")
	created, _ := rs.Create("101", "h", alice.ID)

	room, err := rs.GetByName("101")
	if err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if room == nil || room.ID != created.ID {
		t.Fatalf("got %+v, want id %d", room, created.ID)
	}

	missing, err := rs.GetByName("999")
	if err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown room")
	}
}

func TestRoomMembers(t *testing.T) {
	rs, us := setupRoomTestDB(t)

	alice, _ := us.Create("alice@example.com", "Alice", "hash")
	bob, _ := us.Create("bob@example.com", "Bob", "hash")
	room, _ := rs.Create("101", "h", alice.ID)

	if err := rs.AddMember(room.ID, bob.ID); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := rs.AddMember(room.ID, bob.ID); err != nil {
		t.Fatalf("add member twice: %v", err)
	}

	members, err := rs.ListMembers(room.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("len = %d, want 2", len(members))
	}
	if members[0].Name != "Alice" || members[1].Name != "Bob" {
		t.Errorf("members = %+v", members)
	}
	if members[1].Email != "bob@example.com" {
		t.Errorf("email = %q, want %q", members[1].Email, "bob@example.com")
	}

	if err := rs.RemoveMember(room.ID, bob.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	ok, _ := rs.IsMember(room.ID, bob.ID)
	if ok {
		t.Error("bob should no longer be a member")
	}
}

func TestRoomListForUser(t *testing.T) {
	rs, us := setupRoomTestDB(t)

	alice, _ := us.Create("alice@example.com", "Alice", "hash")
	bob, _ := us.Create("bob@example.com", "Bob", "hash")
	rs.Create("202", "h", alice.ID)
	rs.Create("101", "h", alice.ID)
	rs.Create("303", "h", bob.ID)

	rooms, err := rs.ListForUser(alice.ID)
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("len = %d, want 2", len(rooms))
	}
	if rooms[0].Name != "101" || rooms[1].Name != "202" {
		t.Errorf("rooms = %q, %q; want 101, 202", rooms[0].Name, rooms[1].Name)
	}
}
