package catalog

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/morezero/type-mapper/pkg/mapper"
	"github.com/morezero/type-mapper/pkg/registry"
)

const logPrefix = "catalog:catalog"

// Register adds the shipped strategies to r:
//
//	Source   -> Destination  singleton func
//	Account  -> AccountView  singleton
//	Account  -> ProfileView  scoped (one clock reading per scope)
//	Account  -> string       singleton, discovered from its Map method
func Register(r *registry.Registry) error {
	if _, err := registry.RegisterFunc(r, func(s Source) (Destination, error) {
		return Destination{Name: s.Name}, nil
	}); err != nil {
		return fmt.Errorf("%s - register source mapper: %w", logPrefix, err)
	}
	if _, err := registry.Register[Account, AccountView](r, accountViewMapper{}); err != nil {
		return fmt.Errorf("%s - register account view mapper: %w", logPrefix, err)
	}
	registry.RegisterFactory(r, registry.Scoped, func() mapper.TypeMapper[Account, ProfileView] {
		return newProfileMapper(time.Now)
	})
	if _, err := r.RegisterInstance(summaryMapper{}); err != nil {
		return fmt.Errorf("%s - register summary mapper: %w", logPrefix, err)
	}

	slog.Debug(fmt.Sprintf("%s - registered %d capabilities", logPrefix, r.Len()))
	return nil
}

type accountViewMapper struct{}

func (accountViewMapper) Map(a Account) (AccountView, error) {
	if a.Email == "" {
		return AccountView{}, fmt.Errorf("account %d has no email", a.ID)
	}
	status := "inactive"
	if a.Active {
		status = "active"
	}
	return AccountView{
		ID:          a.ID,
		DisplayName: displayName(a),
		Email:       strings.ToLower(a.Email),
		Status:      status,
	}, nil
}

type profileMapper struct {
	renderedAt time.Time
}

func newProfileMapper(now func() time.Time) *profileMapper {
	return &profileMapper{renderedAt: now().UTC()}
}

func (m *profileMapper) Map(a Account) (ProfileView, error) {
	days := 0
	if !a.Created.IsZero() && m.renderedAt.After(a.Created) {
		days = int(m.renderedAt.Sub(a.Created).Hours() / 24)
	}
	return ProfileView{
		DisplayName: displayName(a),
		Initials:    initials(a),
		MemberDays:  days,
		RenderedAt:  m.renderedAt,
	}, nil
}

// summaryMapper renders "Name <email>".
type summaryMapper struct{}

func (summaryMapper) Map(a Account) (string, error) {
	return fmt.Sprintf("%s <%s>", displayName(a), a.Email), nil
}

func displayName(a Account) string {
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name == "" {
		return a.Email
	}
	return name
}

func initials(a Account) string {
	var b strings.Builder
	for _, part := range []string{a.FirstName, a.LastName} {
		if r, _ := utf8.DecodeRuneInString(part); r != utf8.RuneError {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
