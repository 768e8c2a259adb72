package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Date", "date"},
		{"  Transaction Date  ", "transaction date"},
		{"Amount ($)", "amount"},
		{"Check or Slip #", "check or slip"},
		{"Post-Date", "postdate"},
		{"Descrição", "descrição"},
		{"", ""},
		{"***", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeHeader(tt.in), "NormalizeHeader(%q)", tt.in)
	}
}

func TestDetectProfile(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    Profile
	}{
		{"chase card", []string{"Transaction Date", "Post Date", "Description", "Category", "Type", "Amount", "Memo"}, ProfileChase},
		{"post date only", []string{"Post Date", "Payee", "Amount"}, ProfileChase},
		{"amex", []string{"Date", "Description", "Card Member", "Account #", "Amount"}, ProfileAmex},
		{"amex needs description", []string{"Date", "Payee", "Amount"}, ProfileGeneric},
		{"chase checking", []string{"Details", "Posting Date", "Description", "Amount", "Type", "Balance", "Check or Slip #"}, ProfileGeneric},
		{"unknown", []string{"Foo", "Bar"}, ProfileGeneric},
		{"empty", nil, ProfileGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectProfile(tt.headers))
			// Same input, same answer.
			assert.Equal(t, DetectProfile(tt.headers), DetectProfile(tt.headers))
		})
	}
}

func TestInferColumns_ChaseCard(t *testing.T) {
	headers := []string{"Transaction Date", "Post Date", "Description", "Category", "Type", "Amount", "Memo"}
	cols := InferColumns(headers, DetectProfile(headers))
	assert.Equal(t, ColumnMap{Date: 0, Description: 2, Amount: 5, Category: 4}, cols)
	assert.Empty(t, cols.Missing())
}

func TestInferColumns_ChaseChecking(t *testing.T) {
	headers := []string{"Details", "Posting Date", "Description", "Amount", "Type", "Balance", "Check or Slip #"}
	cols := InferColumns(headers, ProfileGeneric)
	assert.Equal(t, ColumnMap{Date: 1, Description: 2, Amount: 3, Category: 4}, cols)
}

func TestInferColumns_Amex(t *testing.T) {
	headers := []string{"Date", "Description", "Card Member", "Account #", "Amount"}
	cols := InferColumns(headers, ProfileAmex)
	assert.Equal(t, ColumnMap{Date: 0, Description: 1, Amount: 4, Category: NotFound}, cols)
}

func TestInferColumns_PriorityBeatsPosition(t *testing.T) {
	// "description" is tried before "memo" even though Memo comes first.
	headers := []string{"Memo", "Description", "Date", "Amount"}
	cols := InferColumns(headers, ProfileGeneric)
	assert.Equal(t, 1, cols.Description)
}

func TestInferColumns_TieGoesToLowestIndex(t *testing.T) {
	headers := []string{"Date", "Payee", "Amount", "Debit Amount"}
	cols := InferColumns(headers, ProfileGeneric)
	assert.Equal(t, 2, cols.Amount)
}

func TestInferColumns_ReverseContainment(t *testing.T) {
	// "Desc" is contained in the candidate "description".
	headers := []string{"Date", "Desc", "Amount"}
	cols := InferColumns(headers, ProfileGeneric)
	assert.Equal(t, 1, cols.Description)
}

func TestInferColumns_BlankHeadersNeverMatch(t *testing.T) {
	headers := []string{"", "Date", "Description", "Amount"}
	cols := InferColumns(headers, ProfileGeneric)
	assert.Equal(t, ColumnMap{Date: 1, Description: 2, Amount: 3, Category: NotFound}, cols)
}

func TestInferColumns_Missing(t *testing.T) {
	cols := InferColumns([]string{"Foo", "Bar"}, ProfileGeneric)
	assert.Equal(t, ColumnMap{Date: NotFound, Description: NotFound, Amount: NotFound, Category: NotFound}, cols)
	assert.Equal(t, []Role{RoleDate, RoleDescription, RoleAmount}, cols.Missing())
}

func TestInferColumns_UnknownProfileUsesGeneric(t *testing.T) {
	headers := []string{"Trans Date", "Merchant", "Transaction Amount"}
	assert.Equal(t, InferColumns(headers, ProfileGeneric), InferColumns(headers, Profile("nope")))
}

func TestDictionaryFor_ReturnsCopy(t *testing.T) {
	d, ok := DictionaryFor(ProfileChase)
	assert.True(t, ok)
	d.Date[0] = "mutated"

	again, _ := DictionaryFor(ProfileChase)
	assert.Equal(t, "transaction date", again.Date[0])

	_, ok = DictionaryFor(Profile("nope"))
	assert.False(t, ok)
}

func TestProfiles(t *testing.T) {
	assert.Equal(t, []Profile{ProfileGeneric, ProfileChase, ProfileAmex}, Profiles())
	for _, p := range Profiles() {
		d, ok := DictionaryFor(p)
		assert.True(t, ok)
		for _, r := range []Role{RoleDate, RoleDescription, RoleAmount, RoleCategory} {
			assert.NotEmpty(t, d.Candidates(r), "%s %s", p, r)
		}
	}
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "Date", RoleDate.String())
	assert.Equal(t, "Category", RoleCategory.String())
	assert.Equal(t, "Unknown", Role(42).String())
}
