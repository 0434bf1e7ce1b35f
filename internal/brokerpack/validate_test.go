package brokerpack

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func acxiomEntry() BrokerEntry {
	return BrokerEntry{
		ID:             "acxiom-test",
		Name:           "Acxiom Test",
		OptOutURL:      "https://isapps.acxiom.com/optout/optout.aspx",
		RequiredFields: []string{"name", "email", "address"},
	}
}

func TestBuildAppliesDefaults(t *testing.T) {
	notes := "first cut"
	p, err := CreateRequest{
		Version: "1.0.1",
		Brokers: []BrokerEntry{acxiomEntry(), {ID: "spokeo", Name: "Spokeo", OptOutURL: "https://www.spokeo.com/optout"}},
		Notes:   &notes,
	}.Build()
	require.NoError(t, err)

	want := BrokerPack{
		Version: "1.0.1",
		Notes:   "first cut",
		Brokers: []BrokerEntry{
			{
				ID:             "acxiom-test",
				Name:           "Acxiom Test",
				OptOutURL:      "https://isapps.acxiom.com/optout/optout.aspx",
				FormType:       FormTypeWeb,
				RequiredFields: []string{"name", "email", "address"},
			},
			{
				ID:             "spokeo",
				Name:           "Spokeo",
				OptOutURL:      "https://www.spokeo.com/optout",
				FormType:       FormTypeWeb,
				RequiredFields: []string{},
			},
		},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Fatalf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildWithoutNotesDefaultsToEmpty(t *testing.T) {
	p, err := CreateRequest{Version: "2.0.0", Brokers: []BrokerEntry{}}.Build()
	require.NoError(t, err)
	require.Equal(t, "", p.Notes)
	require.NotNil(t, p.Brokers)
	require.Empty(t, p.Brokers)
}

func TestBuildRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  CreateRequest
	}{
		{name: "empty version", req: CreateRequest{Version: "  "}},
		{name: "padded version", req: CreateRequest{Version: " 1.0.0"}},
		{name: "slash in version", req: CreateRequest{Version: "1.0/2"}},
		{name: "reserved version", req: CreateRequest{Version: "latest"}},
		{name: "missing id", req: CreateRequest{Version: "1", Brokers: []BrokerEntry{{Name: "x", OptOutURL: "https://x.example"}}}},
		{name: "missing name", req: CreateRequest{Version: "1", Brokers: []BrokerEntry{{ID: "x", OptOutURL: "https://x.example"}}}},
		{name: "missing url", req: CreateRequest{Version: "1", Brokers: []BrokerEntry{{ID: "x", Name: "X"}}}},
		{name: "blank url", req: CreateRequest{Version: "1", Brokers: []BrokerEntry{{ID: "x", Name: "X", OptOutURL: "   "}}}},
		{name: "brokers absent", req: CreateRequest{Version: "1"}},
		{name: "duplicate ids", req: CreateRequest{Version: "1", Brokers: []BrokerEntry{acxiomEntry(), acxiomEntry()}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.Build()
			require.Error(t, err)
			require.True(t, IsInvalid(err), "expected invalid-argument error, got %v", err)
		})
	}
}

func TestBuildAcceptsFreeFormEntries(t *testing.T) {
	p, err := CreateRequest{
		Version: "1.1.0",
		Brokers: []BrokerEntry{
			{ID: "mailer", Name: "Mailer", OptOutURL: "mailto:privacy@b.example", FormType: FormTypeEmail},
			{ID: "custom", Name: "Custom", OptOutURL: "https://c.example/optout", FormType: "online_form"},
			{ID: "postal", Name: "Postal", OptOutURL: "PO Box 1, Springfield", FormType: " mail "},
		},
	}.Build()
	require.NoError(t, err)
	require.Equal(t, "mailto:privacy@b.example", p.Brokers[0].OptOutURL)
	require.Equal(t, FormType("online_form"), p.Brokers[1].FormType)
	require.Equal(t, FormTypeMail, p.Brokers[2].FormType)
}

func TestBuildDoesNotAliasRequestSlices(t *testing.T) {
	entry := acxiomEntry()
	req := CreateRequest{Version: "1.0.0", Brokers: []BrokerEntry{entry}}
	p, err := req.Build()
	require.NoError(t, err)

	req.Brokers[0].RequiredFields[0] = "mutated"
	require.Equal(t, "name", p.Brokers[0].RequiredFields[0])
}

func TestSanitizeStripsStorageKey(t *testing.T) {
	stored := NewStoredPack(BrokerPack{Version: "1.0.0", Brokers: []BrokerEntry{acxiomEntry()}})
	require.Equal(t, "1.0.0", stored.ID)

	out := stored.Sanitize()
	out.Brokers[0].Name = "changed"
	require.Equal(t, "Acxiom Test", stored.Brokers[0].Name)
}
