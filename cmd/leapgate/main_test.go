package main

import "testing"

func TestGetConfigPath(t *testing.T) {
	t.Setenv("LEAPGATE_CONFIG", "")
	if got := getConfigPath(); got != "config.yaml" {
		t.Errorf("getConfigPath() = %q, want config.yaml", got)
	}

	t.Setenv("LEAPGATE_CONFIG", "/etc/leapgate/config.yaml")
	if got := getConfigPath(); got != "/etc/leapgate/config.yaml" {
		t.Errorf("getConfigPath() = %q, want env override", got)
	}
}
