package db

import "testing"

func TestNormalizeDSN(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"postgres://u:p@localhost:5432/gestor?sslmode=disable", "postgres://u:p@localhost:5432/gestor?sslmode=disable"},
		{"  'postgres://u@h/db'  ", "postgres://u@h/db"},
		{"host=localhost user=u dbname=gestor", "host=localhost user=u dbname=gestor sslmode=disable"},
		{"host=localhost   user=u  dbname=gestor sslmode=require", "host=localhost user=u dbname=gestor sslmode=require"},
		{"sqlite:gestor.db", "sqlite:gestor.db"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeDSN(c.in); got != c.want {
			t.Fatalf("NormalizeDSN(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
