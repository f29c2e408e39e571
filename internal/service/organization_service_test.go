package service

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Metalworks", "metalworks"},
		{"Serralharia São João", "serralharia-sao-joao"},
		{"  A  B  ", "a-b"},
		{"Fábrica Nº 3", "fabrica-n-3"},
		{"---", ""},
		{"Aço & Ferro, Lda.", "aco-ferro-lda"},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
