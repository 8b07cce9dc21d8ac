package session

import (
	"errors"
	"testing"
	"time"
)

func checkInterfaceInvariant(t *testing.T, s *Session) {
	t.Helper()
	if (s.Mode == CiscoIf) != (s.CurrentInterface != "") {
		t.Errorf("mode %s with CurrentInterface %q", s.Mode, s.CurrentInterface)
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from Mode
		trig Trigger
		to   Mode
		ok   bool
	}{
		{CiscoExec, TrigEnable, CiscoPriv, true},
		{CiscoPriv, TrigDisable, CiscoExec, true},
		{CiscoPriv, TrigConfigure, CiscoConfig, true},
		{CiscoConfig, TrigInterface, CiscoIf, true},
		{CiscoIf, TrigInterface, CiscoIf, true},
		{CiscoIf, TrigExit, CiscoConfig, true},
		{CiscoConfig, TrigExit, CiscoPriv, true},
		{CiscoConfig, TrigEnd, CiscoPriv, true},
		{CiscoIf, TrigEnd, CiscoPriv, true},
		{CiscoPriv, TrigExit, CiscoExec, true},
		{Linux, TrigEnable, 0, false},
		{CiscoExec, TrigConfigure, 0, false},
		{CiscoPriv, TrigEnd, 0, false},
		{CiscoPriv, TrigInterface, 0, false},
	}
	for _, tt := range tests {
		to, ok := Next(tt.from, tt.trig)
		if ok != tt.ok || (ok && to != tt.to) {
			t.Errorf("Next(%s, %s) = %s,%v want %s,%v", tt.from, tt.trig, to, ok, tt.to, tt.ok)
		}
	}
}

func TestApplyKeepsInterfaceInvariant(t *testing.T) {
	st := NewStore("netreka", "user", nil)
	s, _ := st.Open("switch")

	steps := []struct {
		trig  Trigger
		iface string
		want  Mode
	}{
		{TrigEnable, "", CiscoPriv},
		{TrigConfigure, "", CiscoConfig},
		{TrigInterface, "GigabitEthernet0/0", CiscoIf},
		{TrigInterface, "Loopback0", CiscoIf},
		{TrigExit, "", CiscoConfig},
		{TrigInterface, "GigabitEthernet0/1", CiscoIf},
		{TrigEnd, "", CiscoPriv},
	}
	for _, step := range steps {
		out, err := s.Apply(step.trig, step.iface)
		if err != nil {
			t.Fatalf("%s: %v", step.trig, err)
		}
		if out.To != step.want || s.Mode != step.want {
			t.Errorf("%s: mode %s, want %s", step.trig, s.Mode, step.want)
		}
		checkInterfaceInvariant(t, s)
	}
}

func TestApplyRejected(t *testing.T) {
	st := NewStore("netreka", "user", nil)
	s := st.Local()
	_, err := s.Apply(TrigEnable, "")
	if !errors.Is(err, ErrModeRejected) {
		t.Fatalf("err = %v, want ErrModeRejected", err)
	}
	if s.Mode != Linux {
		t.Errorf("mode changed to %s on rejection", s.Mode)
	}
}

func TestExitOutcomes(t *testing.T) {
	st := NewStore("netreka", "user", nil)
	out, err := st.Local().Apply(TrigExit, "")
	if err != nil || !out.Hide || out.Close {
		t.Errorf("linux exit = %+v, %v; want Hide", out, err)
	}

	remote, created := st.Open("router")
	if !created {
		t.Error("first Open should create")
	}
	out, err = remote.Apply(TrigExit, "")
	if err != nil || !out.Close || out.Hide {
		t.Errorf("remote exec exit = %+v, %v; want Close", out, err)
	}
}

func TestStoreOpenReuseAndClose(t *testing.T) {
	clock := time.Unix(1000, 0)
	st := NewStore("netreka", "user", func() time.Time { return clock })
	s, created := st.Open("switch")
	if !created || s.ID != "ssh_switch" || s.Mode != CiscoExec || s.Username != "admin" || s.Hostname != "switch" {
		t.Fatalf("Open = %+v created=%v", s, created)
	}
	if st.Active() != s {
		t.Error("opened session not active")
	}
	firstConn := s.ConnID
	s.Record("enable")

	left := st.CloseActive()
	if left != s || st.Active() != st.Local() {
		t.Error("CloseActive did not return to local")
	}

	again, created := st.Open("switch")
	if created || again != s {
		t.Error("second Open should reuse the session")
	}
	if again.ConnID == firstConn {
		t.Error("reused session kept its connection id")
	}
	if len(again.History) != 1 {
		t.Errorf("history = %v", again.History)
	}
	if st.Len() != 2 {
		t.Errorf("Len() = %d", st.Len())
	}

	st.Open("r1")
	ids := []string{}
	for _, s := range st.List() {
		ids = append(ids, s.ID)
	}
	want := []string{"local", "ssh_r1", "ssh_switch"}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
	if err := st.Activate("nope"); err == nil {
		t.Error("Activate unknown session succeeded")
	}
}

func TestPrompt(t *testing.T) {
	st := NewStore("netreka", "user", nil)
	if p := st.Local().Prompt(); p != "user@local:~$" {
		t.Errorf("linux prompt = %q", p)
	}
	// The shell prompt names the session, not the host.
	st.Local().Hostname = "box"
	if p := st.Local().Prompt(); p != "user@local:~$" {
		t.Errorf("linux prompt after hostname change = %q", p)
	}
	s, _ := st.Open("sw1")
	want := map[Mode]string{
		CiscoExec:   "sw1>",
		CiscoPriv:   "sw1#",
		CiscoConfig: "sw1(config)#",
		CiscoIf:     "sw1(config-if)#",
	}
	for m, p := range want {
		s.Mode = m
		if got := s.Prompt(); got != p {
			t.Errorf("%s prompt = %q, want %q", m, got, p)
		}
	}
}

func TestModeSet(t *testing.T) {
	set := Modes(CiscoConfig, CiscoIf)
	if !set.Has(CiscoIf) || set.Has(CiscoPriv) {
		t.Errorf("set %s membership wrong", set)
	}
	for m := Linux; m < numModes; m++ {
		if !AllModes.Has(m) {
			t.Errorf("AllModes missing %s", m)
		}
	}
	if AllModes.String() != "all" || set.String() != "cisco_config,cisco_if" {
		t.Errorf("String() = %q / %q", AllModes, set)
	}
	if m, err := ParseMode("CISCO_PRIV"); err != nil || m != CiscoPriv {
		t.Errorf("ParseMode = %s, %v", m, err)
	}
}
