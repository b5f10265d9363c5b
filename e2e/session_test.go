//go:build e2e && unix

package main

import (
	"testing"

	"github.com/darksworm/mongonaut/pkg/store"
)

func TestTabsShowHelpConsoleSettings(t *testing.T) {
	tf := NewTUITest(t)
	t.Cleanup(tf.Cleanup)

	gw := StartGateway(t, false, nil, DefaultSeed()...)
	if err := tf.SetupWorkspace(gw.URL, localProfile()); err != nil {
		t.Fatalf("setup workspace: %v", err)
	}
	tf.Connect()

	_ = tf.Send("2")
	tf.MustSee("toggle collections / GridFS buckets")

	_ = tf.Send("3")
	tf.MustSee("GATEWAY CALLS")
	tf.MustSee("POST")

	_ = tf.Send("4")
	tf.MustSee("auto_close_ms = 300")

	_ = tf.Send("1")
	tf.MustSee("DATABASES")

	_ = tf.Send("q")
}

func TestPasswordPromptAfterRejectedLogin(t *testing.T) {
	tf := NewTUITest(t)
	t.Cleanup(tf.Cleanup)

	gw := StartGateway(t, false, map[string]string{"ops": "s3cret"}, DefaultSeed()...)
	profile := store.Profile{Name: "staging", Host: "127.0.0.1", Port: 27019, Username: "ops"}
	if err := tf.SetupWorkspace(gw.URL, profile); err != nil {
		t.Fatalf("setup workspace: %v", err)
	}
	if err := tf.StartApp(); err != nil {
		t.Fatalf("start app: %v", err)
	}
	tf.MustSee("staging")

	_ = tf.Enter()
	tf.MustSee("Log in to staging as ops")

	// password, then "n" so the test never touches the real keychain
	_ = tf.Send("s3cret")
	_ = tf.Enter()
	_ = tf.Send("\x7f")
	_ = tf.Send("n")
	_ = tf.Enter()
	tf.MustSee("DATABASES")
	tf.MustSee("shop")

	_ = tf.Send("X")
	tf.MustSee("Disconnected")
	_ = tf.CtrlC()
}

func TestCreateProfileFromConnectionsScreen(t *testing.T) {
	tf := NewTUITest(t)
	t.Cleanup(tf.Cleanup)

	gw := StartGateway(t, false, nil, DefaultSeed()...)
	if err := tf.SetupWorkspace(gw.URL); err != nil {
		t.Fatalf("setup workspace: %v", err)
	}
	if err := tf.StartApp(); err != nil {
		t.Fatalf("start app: %v", err)
	}
	tf.MustSee("no saved connections")

	_ = tf.Send("n")
	tf.MustSee("New connection")
	_ = tf.Send("scratch")
	_ = tf.Send("\x13") // ctrl+s saves with the default host and port
	tf.MustSee("Profile scratch saved")
	tf.MustSee("127.0.0.1:27017")

	_ = tf.CtrlC()
}
