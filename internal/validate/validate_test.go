package validate

import (
	"testing"
	"time"

	"bookdesk/internal/models"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestISBN(t *testing.T) {
	tests := []struct {
		isbn string
		ok   bool
	}{
		{"9786053606123", true},
		{"978-605-360-612-3", true},
		{"0306406152", true},
		{"0-306-40615-2", true},
		{"030640615X", true},
		{"12345", false},
		{"", false},
		{"97860536061234", false},
		{"X306406152", false},
	}

	for _, tt := range tests {
		err := ISBN(tt.isbn)
		if tt.ok && err != nil {
			t.Errorf("ISBN(%q) = %v, want nil", tt.isbn, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("ISBN(%q) = nil, want error", tt.isbn)
		}
	}
}

func TestPublishYear(t *testing.T) {
	if err := PublishYear(1984, now); err != nil {
		t.Errorf("PublishYear(1984) = %v, want nil", err)
	}
	if err := PublishYear(now.Year(), now); err != nil {
		t.Errorf("PublishYear(current year) = %v, want nil", err)
	}
	if err := PublishYear(999, now); err == nil {
		t.Error("Expected error for year 999")
	}
	if err := PublishYear(now.Year()+1, now); err == nil {
		t.Error("Expected error for a future year")
	}
}

func TestEmail(t *testing.T) {
	for _, good := range []string{"a@b.co", "reader@example.com", "ö.yazar@kitap.org"} {
		if err := Email(good); err != nil {
			t.Errorf("Email(%q) = %v, want nil", good, err)
		}
	}
	for _, bad := range []string{"", "nope", "@example.com", "a@", "a@nodot"} {
		if err := Email(bad); err == nil {
			t.Errorf("Email(%q) = nil, want error", bad)
		}
	}
}

func TestPasswordPair(t *testing.T) {
	if err := PasswordPair("secret1", "secret1"); err != nil {
		t.Errorf("Expected matching pair to pass, got %v", err)
	}
	if err := PasswordPair("short", "short"); err == nil {
		t.Error("Expected too-short password to fail")
	}
	if err := PasswordPair("secret1", "secret2"); err == nil {
		t.Error("Expected mismatched confirmation to fail")
	}
}

func TestBook(t *testing.T) {
	valid := models.Book{
		Title:       "Saatleri Ayarlama Enstitüsü",
		Author:      "Ahmet Hamdi Tanpınar",
		ISBN:        "9789750718534",
		PublishYear: 1961,
		Category:    "Novel",
		Quantity:    2,
		Status:      models.StatusAvailable,
	}

	if err := Book(valid, now); err != nil {
		t.Fatalf("Expected valid book to pass, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(b *models.Book)
		field  string
	}{
		{"empty title", func(b *models.Book) { b.Title = "  " }, "title"},
		{"empty author", func(b *models.Book) { b.Author = "" }, "author"},
		{"empty category", func(b *models.Book) { b.Category = "" }, "category"},
		{"bad isbn", func(b *models.Book) { b.ISBN = "123" }, "isbn"},
		{"bad year", func(b *models.Book) { b.PublishYear = 1 }, "publishYear"},
		{"negative quantity", func(b *models.Book) { b.Quantity = -1 }, "quantity"},
		{"unknown status", func(b *models.Book) { b.Status = "lost" }, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid
			tt.mutate(&b)
			err := Book(b, now)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			fieldErr, ok := err.(*FieldError)
			if !ok {
				t.Fatalf("Expected *FieldError, got %T", err)
			}
			if fieldErr.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, fieldErr.Field)
			}
		})
	}
}

func TestDueDate(t *testing.T) {
	if err := DueDate(now, now); err != nil {
		t.Errorf("Expected today to be accepted, got %v", err)
	}
	if err := DueDate(now.AddDate(0, 0, 14), now); err != nil {
		t.Errorf("Expected a future date to be accepted, got %v", err)
	}
	if err := DueDate(now.AddDate(0, 0, -1), now); err == nil {
		t.Error("Expected yesterday to be rejected")
	}
}
