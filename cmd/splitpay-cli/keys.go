package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"splitpay/cmd/internal/passphrase"
	"splitpay/crypto"
	"splitpay/rpc"
)

func (c *cli) keygen(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	pass, err := passphrase.NewSource(passphraseEnv).WithConfirmation().Get()
	if err != nil {
		return err
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return err
	}
	if err := crypto.SaveToKeystore(path, key, pass); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Saved key to %s\nAddress: %s\n", path, key.PubKey().Address().String())
	return nil
}

// resolveAddress accepts an address literal or a keystore path.
func resolveAddress(value string) (crypto.Address, error) {
	if addr, err := crypto.ParseAddress(value); err == nil {
		return addr, nil
	}
	if _, err := os.Stat(value); err != nil {
		return crypto.Address{}, fmt.Errorf("%q is neither an address nor a keystore", value)
	}
	pass, err := passphrase.NewSource(passphraseEnv).Get()
	if err != nil {
		return crypto.Address{}, err
	}
	key, err := crypto.LoadFromKeystore(value, pass)
	if err != nil {
		return crypto.Address{}, err
	}
	return key.PubKey().Address(), nil
}

func (c *cli) address(value string) error {
	addr, err := resolveAddress(value)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s\n0x%x\n", addr.String(), addr.Bytes())
	return nil
}

// mintToken signs a development caller token with the daemon's shared secret.
func (c *cli) mintToken(value, rawTTL string) error {
	secret := strings.TrimSpace(os.Getenv(secretEnv))
	if secret == "" {
		return fmt.Errorf("%s must be set to mint tokens", secretEnv)
	}
	ttl := time.Hour
	if strings.TrimSpace(rawTTL) != "" {
		parsed, err := time.ParseDuration(rawTTL)
		if err != nil {
			return fmt.Errorf("invalid ttl: %w", err)
		}
		ttl = parsed
	}
	addr, err := resolveAddress(value)
	if err != nil {
		return err
	}
	issuer := envOr("SPLITPAY_JWT_ISSUER", "splitpay")
	audience := os.Getenv("SPLITPAY_JWT_AUDIENCE")
	tok, err := rpc.IssueToken(secret, issuer, audience, addr, ttl, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, tok)
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
