package sqlite

import (
	"context"

	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/google/uuid"
)

type defaultCategory struct {
	name     string
	typ      domain.TransactionType
	keywords []string
}

var defaultCategories = []defaultCategory{
	{"Salaris", domain.TypeIncome, []string{"salaris", "loon", "salary"}},
	{"Toeslagen", domain.TypeIncome, []string{"belastingdienst", "toeslag", "svb"}},
	{"Boodschappen", domain.TypeExpense, []string{"albert heijn", "jumbo", "lidl", "aldi", "plus ", "dirk"}},
	{"Restaurants", domain.TypeExpense, []string{"thuisbezorgd", "restaurant", "cafe", "uber eats"}},
	{"Vervoer", domain.TypeExpense, []string{"ns groep", "ov-chipkaart", "shell", "bp ", "tango", "gvb"}},
	{"Wonen", domain.TypeExpense, []string{"huur", "hypotheek", "vattenfall", "eneco", "waternet"}},
	{"Abonnementen", domain.TypeExpense, []string{"netflix", "spotify", "kpn", "ziggo", "vodafone"}},
	{"Verzekeringen", domain.TypeExpense, []string{"zilveren kruis", "cz ", "verzekering"}},
	{"Gezondheid", domain.TypeExpense, []string{"apotheek", "tandarts", "huisarts"}},
	{"Winkelen", domain.TypeExpense, []string{"bol.com", "action", "hema", "zalando", "coolblue"}},
	{"Sparen", domain.TypeTransfer, []string{"spaarrekening", "oranje spaarrekening", "sparen"}},
	{"Eigen rekening", domain.TypeTransfer, []string{"eigen rekening", "overboeking"}},
}

// DefaultCategoryID derives the stable id of a seeded category.
func DefaultCategoryID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("cat:"+name)).String()
}

// SeedDefaults ensures baseline shared categories exist for new databases.
// It is idempotent and safe to run on every startup.
func (s *Store) SeedDefaults(ctx context.Context) error {
	existing, err := s.ListCategories(ctx, "")
	if err == nil && len(existing) > 0 {
		return nil
	}
	for idx, d := range defaultCategories {
		c := domain.Category{
			ID:       DefaultCategoryID(d.name),
			Name:     d.name,
			Type:     d.typ,
			Keywords: d.keywords,
		}
		if err := s.UpsertCategory(ctx, "", c, idx); err != nil {
			return err
		}
	}
	return nil
}
