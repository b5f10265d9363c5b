package clipboard

import (
	"errors"
	"testing"
)

func stubWriters(t *testing.T, systemErr error) (system, osc *[]string) {
	t.Helper()
	var sys, o []string
	origSystem, origOSC := writeSystem, writeOSC52
	writeSystem = func(s string) error {
		if systemErr != nil {
			return systemErr
		}
		sys = append(sys, s)
		return nil
	}
	writeOSC52 = func(s string) { o = append(o, s) }
	t.Cleanup(func() {
		writeSystem, writeOSC52 = origSystem, origOSC
		SetCopyCommand("")
	})
	return &sys, &o
}

func TestCopy(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		systemErr  error
		wantOK     bool
		wantMethod string
		wantSystem int
		wantOSC    int
	}{
		{name: "empty text", text: "", wantOK: false},
		{name: "system clipboard", text: "shop.orders", wantOK: true, wantMethod: "system", wantSystem: 1},
		{name: "osc52 fallback", text: "shop", systemErr: errors.New("no xclip"), wantOK: true, wantMethod: "osc52", wantOSC: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			system, osc := stubWriters(t, tt.systemErr)

			msg := Copy(tt.text)
			if msg.Success != tt.wantOK || msg.Method != tt.wantMethod {
				t.Fatalf("Copy(%q) = %+v", tt.text, msg)
			}
			if len(*system) != tt.wantSystem || len(*osc) != tt.wantOSC {
				t.Fatalf("system=%v osc=%v", *system, *osc)
			}
		})
	}
}

func TestCopy_CustomCommandFailure(t *testing.T) {
	system, osc := stubWriters(t, nil)
	SetCopyCommand("mongonaut-no-such-copy-tool")

	msg := Copy("shop")
	if msg.Success || msg.Method != "command" {
		t.Fatalf("Copy() = %+v, want failed command copy", msg)
	}
	if len(*system)+len(*osc) != 0 {
		t.Fatal("fell back after an explicit command failed")
	}
}

func TestCopyCmd(t *testing.T) {
	stubWriters(t, nil)
	msg, ok := CopyCmd("crm.leads")().(CopyMsg)
	if !ok || !msg.Success || msg.Text != "crm.leads" {
		t.Fatalf("CopyCmd() = %+v", msg)
	}
}
