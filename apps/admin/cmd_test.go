package main

import (
	"encoding/json"
	"io/ioutil"
	"log"
	"strings"
	"testing"

	"github.com/trezcool/arifa/core"
	"github.com/trezcool/arifa/core/counter"
	"github.com/trezcool/arifa/core/school"
	"github.com/trezcool/arifa/core/syncbus"
	"github.com/trezcool/arifa/storage/kv/inmem"
)

func setup(t *testing.T, seed map[string]interface{}) *commandLine {
	t.Helper()

	kv := inmem.NewStore()
	for key, v := range seed {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("seeding %q: %v", key, err)
		}
		if err := kv.Set(key, data); err != nil {
			t.Fatalf("seeding %q: %v", key, err)
		}
	}

	coreLog := core.NewStdLogger(log.New(ioutil.Discard, "", 0))
	repo := school.NewRepository(kv, coreLog)
	return &commandLine{
		svc: counter.NewService(repo, syncbus.New(), coreLog),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func Test_commandLine_run(t *testing.T) {
	cli := setup(t, map[string]interface{}{
		school.KeyPasswordRequests: []school.PasswordRequest{
			{ID: "r1", Username: "alice", Status: school.RequestPending},
		},
	})

	tests := []cliTest{
		{name: "no subcommand", args: []string{}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"lol"}, wantErr: errHelp},
		{name: "counts: no flags", args: []string{"counts"}, wantErr: errHelp},
		{name: "counts: missing role", args: []string{"counts", "-username", "alice"}, wantErr: errHelp},
		{name: "counts: missing identity", args: []string{"counts", "-role", "student"}, wantErr: errHelp},
		{name: "counts: unknown role", args: []string{"counts", "-username", "alice", "-role", "wizard"}, wantErrStr: `unknown role "wizard"`},
		{name: "counts: ok", args: []string{"counts", "-id", "a1", "-role", "admin"}},
		{name: "counts: role is cleaned", args: []string{"counts", "-id", "a1", "-role", " Admin "}},
		{name: "repair: ok", args: []string{"repair"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("run() err = %v; want %v", err, tt.wantErr)
				}
				return
			}
			if tt.wantErrStr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErrStr) {
					t.Errorf("run() err = %v; want %q", err, tt.wantErrStr)
				}
				return
			}
			if err != nil {
				t.Errorf("run() failed: %v", err)
			}
		})
	}
}
