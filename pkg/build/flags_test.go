// SPDX-License-Identifier: MIT
package build

import "testing"

func TestGetBuildFlagsDefaults(t *testing.T) {
	Initialize()
	flags := GetBuildFlags()

	if flags == nil {
		t.Fatal("GetBuildFlags returned nil")
	}
	if flags.Name == "" {
		t.Error("build name should never be empty")
	}
	if flags.Version == "" {
		t.Error("build version should never be empty")
	}
}

func TestInitializeAppliesLdflags(t *testing.T) {
	// Simulate values injected by the linker.
	buildVersion = "1.2.3"
	buildCommit = "abc1234"
	defer func() {
		buildVersion = ""
		buildCommit = ""
	}()

	Initialize()
	flags := GetBuildFlags()

	if flags.Version != "1.2.3" {
		t.Errorf("Version = %q, want %q", flags.Version, "1.2.3")
	}
	if flags.Commit != "abc1234" {
		t.Errorf("Commit = %q, want %q", flags.Commit, "abc1234")
	}
}
