package validation

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Patterns shared by request models.
var (
	UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	SlugPattern     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	PhonePattern    = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	MimeTypePattern = regexp.MustCompile(`^[a-z]+/[a-z0-9\-\+\.]+$`)
	UUIDPattern     = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

// Password length bounds and the special characters a password must draw from.
const (
	PasswordMinLength = 8
	PasswordMaxLength = 128
	PasswordSpecials  = "@$!%*?&"
)

// PasswordRuleMessage is reported when a password fails the strength rule.
const PasswordRuleMessage = "Password must be 8-128 characters and contain at least one uppercase letter, " +
	"one lowercase letter, one number, and one special character"

// IsStrongPassword reports whether s is 8-128 characters drawn only from
// ASCII letters, digits and @$!%*?&, with at least one of each class.
func IsStrongPassword(s string) bool {
	if len(s) < PasswordMinLength || len(s) > PasswordMaxLength {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSpecials, r):
			special = true
		default:
			return false
		}
	}
	return lower && upper && digit && special
}

// IsHTTPURL reports whether s is an absolute http or https URL with a host.
func IsHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeUsername lower-cases a username.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func regexRule(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

func registerRules(v *validator.Validate) {
	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic("validation: registering " + tag + ": " + err.Error())
		}
	}

	must("password", func(fl validator.FieldLevel) bool { return IsStrongPassword(fl.Field().String()) })
	must("username", regexRule(UsernamePattern))
	must("slug", regexRule(SlugPattern))
	must("phone", regexRule(PhonePattern))
	must("mimetype", regexRule(MimeTypePattern))
	must("uuid4ish", regexRule(UUIDPattern))
	must("httpurl", func(fl validator.FieldLevel) bool { return IsHTTPURL(fl.Field().String()) })
	must("accepted", func(fl validator.FieldLevel) bool { return fl.Field().Bool() })
	must("future", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		return ok && t.After(time.Now())
	})
}
