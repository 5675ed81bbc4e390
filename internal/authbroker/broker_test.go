package authbroker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridbox/provider/internal/item"
)

func TestStaticBroker_ListAccounts(t *testing.T) {
	accounts := []Account{{AccountID: "acct-1", ProviderID: "local", DisplayName: "Local Disk"}}
	b := NewStaticBroker(accounts, nil)

	got, err := b.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, accounts, got)
}

func TestStaticBroker_Credentials_Found(t *testing.T) {
	accounts := []Account{{AccountID: "acct-1", ProviderID: "local"}}
	creds := map[string]item.Credentials{
		"acct-1": {Kind: item.CredentialsPassword, Password: "s3cret"},
	}
	b := NewStaticBroker(accounts, creds)

	got, err := b.Credentials(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, creds["acct-1"], got)
}

func TestStaticBroker_Credentials_ReauthRequired(t *testing.T) {
	accounts := []Account{{AccountID: "acct-1", ProviderID: "local"}}
	b := NewStaticBroker(accounts, nil)

	_, err := b.Credentials(context.Background(), "acct-1")
	assert.True(t, errors.Is(err, ErrReauthRequired))
}

func TestStaticBroker_Credentials_AccountNotFound(t *testing.T) {
	b := NewStaticBroker(nil, nil)

	_, err := b.Credentials(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrAccountNotFound))
}
