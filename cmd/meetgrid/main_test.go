package main

import "testing"

func TestLocalAddr(t *testing.T) {
	cases := map[string]string{
		"0.0.0.0:8080":   "127.0.0.1:8080",
		":9090":          "127.0.0.1:9090",
		"[::]:80":        "127.0.0.1:80",
		"10.0.0.5:8080":  "10.0.0.5:8080",
		"localhost:3000": "localhost:3000",
		"not-an-addr":    "not-an-addr",
	}
	for in, want := range cases {
		if got := localAddr(in); got != want {
			t.Fatalf("localAddr(%q) = %q, want %q", in, got, want)
		}
	}
}
