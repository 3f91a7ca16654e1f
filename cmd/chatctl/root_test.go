package main

import "testing"

func TestBuildRootCmdWiring(t *testing.T) {
	cfg := &Config{ServerURL: "http://localhost:8080"}
	root := buildRootCmd(cfg)

	want := map[string]bool{"new": false, "chat": false, "cancel": false, "status": false, "history": false}
	for _, c := range root.Commands() {
		name := c.Name()
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("command %q not registered", name)
		}
	}

	if f := root.PersistentFlags().Lookup("server"); f == nil {
		t.Fatalf("--server flag not registered")
	}
}
