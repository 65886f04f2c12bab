//go:build !integration

package i18n

import (
	"testing"
	"testing/fstest"
)

func TestTranslator(t *testing.T) {
	translator, err := newTranslatorFromBytes([]byte("greeting: Olá\nwelcome_user: Olá %s"))
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	t.Run("should translate a simple key", func(t *testing.T) {
		if got, want := translator.T("greeting"), "Olá"; got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		if got, want := translator.T("nonexistent_key"), "nonexistent_key"; got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		if got, want := translator.T("welcome_user", "Ana"), "Olá Ana"; got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})
}

func TestEmbeddedLocales(t *testing.T) {
	keys := []string{
		"payment.toast.plan_ready", "payment.toast.timeout", "payment.toast.processing_error",
		"payment.error.timeout", "payment.error.processing",
		"payment.page.title", "payment.action.home", "payment.action.retry",
	}
	for _, lang := range []string{"pt-BR", "en"} {
		t.Run("should ship every payment key for "+lang, func(t *testing.T) {
			tr, err := NewTranslator(LocalesFS, lang)
			if err != nil {
				t.Fatal(err)
			}
			for _, k := range keys {
				if tr.T(k) == k {
					t.Errorf("%s: missing key %s", lang, k)
				}
			}
		})
	}
}

func TestCatalogMatch(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/pt-BR.yaml": {Data: []byte("hi: Oi")},
		"locales/en.yaml":    {Data: []byte("hi: Hi")},
	}
	c, err := NewCatalog(fsys, "pt-BR", "pt-BR", "en")
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name, header, want string
	}{
		{"should match exact tag", "en", "Hi"},
		{"should match primary subtag", "en-US,en;q=0.9", "Hi"},
		{"should match portuguese variants", "pt-PT", "Oi"},
		{"should fall back on unknown", "fr-FR", "Oi"},
		{"should fall back on empty", "", "Oi"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Match(tc.header).T("hi"); got != tc.want {
				t.Errorf("wanted %q, got %q", tc.want, got)
			}
		})
	}

	t.Run("should reject a missing fallback", func(t *testing.T) {
		if _, err := NewCatalog(fsys, "es", "en"); err == nil {
			t.Fatal("expected error")
		}
	})
}
