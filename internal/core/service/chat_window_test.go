package service

import "testing"

func TestChatWindow_Defaults(t *testing.T) {
	w := NewChatWindow()
	if st := w.State(); !st.IsOpen || st.IsExpanded {
		t.Fatalf("expected open and not expanded, got %+v", st)
	}
}

func TestChatWindow_Toggles(t *testing.T) {
	w := NewChatWindow()

	if st := w.ToggleOpen(); st.IsOpen {
		t.Fatalf("expected collapsed window")
	}
	if st := w.ToggleExpanded(); !st.IsExpanded || st.IsOpen {
		t.Fatalf("expanding must not reopen, got %+v", st)
	}
	if st := w.ToggleOpen(); !st.IsOpen || !st.IsExpanded {
		t.Fatalf("expected open and expanded, got %+v", st)
	}
	if st := w.ToggleExpanded(); st.IsExpanded {
		t.Fatalf("expected normal size")
	}
}
