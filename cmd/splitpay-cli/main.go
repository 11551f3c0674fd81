package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	passphraseEnv = "SPLITPAY_KEYSTORE_PASS"
	tokenEnv      = "SPLITPAY_TOKEN"
	secretEnv     = "SPLITPAY_JWT_SECRET"
)

// cli carries the global flags shared by every command.
type cli struct {
	endpoint string
	token    string
	out      io.Writer
}

func main() {
	c := &cli{endpoint: defaultRPCEndpoint(), token: strings.TrimSpace(os.Getenv(tokenEnv)), out: os.Stdout}
	args, err := c.applyGlobalFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if len(args) < 1 {
		printUsage(os.Stdout)
		return
	}
	if err := c.run(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("SPLITPAY_RPC_URL")); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func (c *cli) applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--rpc" || arg == "--token":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for %s", arg)
			}
			c.setFlag(arg, args[i+1])
			i++
		case strings.HasPrefix(arg, "--rpc="):
			c.setFlag("--rpc", strings.TrimPrefix(arg, "--rpc="))
		case strings.HasPrefix(arg, "--token="):
			c.setFlag("--token", strings.TrimPrefix(arg, "--token="))
		default:
			out = append(out, arg)
		}
	}
	return out, nil
}

func (c *cli) setFlag(name, value string) {
	switch name {
	case "--rpc":
		c.endpoint = strings.TrimRight(strings.TrimSpace(value), "/")
	case "--token":
		c.token = strings.TrimSpace(value)
	}
}

func need(args []string, n int, usage string) error {
	if len(args) < n {
		return fmt.Errorf("usage: splitpay-cli %s", usage)
	}
	return nil
}

func (c *cli) run(args []string) error {
	command, rest := args[0], args[1:]
	switch command {
	case "keygen":
		if err := need(rest, 1, "keygen <keystore>"); err != nil {
			return err
		}
		return c.keygen(rest[0])
	case "address":
		if err := need(rest, 1, "address <keystore|address>"); err != nil {
			return err
		}
		return c.address(rest[0])
	case "token":
		if err := need(rest, 1, "token <keystore|address> [ttl]"); err != nil {
			return err
		}
		ttl := ""
		if len(rest) > 1 {
			ttl = rest[1]
		}
		return c.mintToken(rest[0], ttl)

	case "owner":
		return c.get("/v1/owner")
	case "manager":
		if err := need(rest, 1, "manager <address>"); err != nil {
			return err
		}
		return c.get("/v1/managers/" + rest[0])
	case "beneficiaries":
		return c.get("/v1/beneficiaries")
	case "beneficiary":
		if err := need(rest, 1, "beneficiary <address>"); err != nil {
			return err
		}
		return c.get("/v1/beneficiaries/" + rest[0])
	case "approval":
		if err := need(rest, 2, "approval <owner> <spender>"); err != nil {
			return err
		}
		return c.get("/v1/approvals/" + rest[0] + "/" + rest[1])
	case "shares":
		return c.get("/v1/shares")
	case "paused":
		return c.get("/v1/paused")
	case "stats":
		return c.get("/v1/stats")
	case "balance":
		if err := need(rest, 1, "balance <address>"); err != nil {
			return err
		}
		return c.get("/v1/accounts/" + rest[0] + "/balance")
	case "events":
		path := "/v1/events"
		if len(rest) > 0 {
			path += "?after=" + rest[0]
		}
		return c.get(path)

	case "pay":
		if err := need(rest, 1, "pay <amount>"); err != nil {
			return err
		}
		return c.send("POST", "/v1/payments", map[string]any{"amount": rest[0]})
	case "add-beneficiary":
		if err := need(rest, 2, "add-beneficiary <address> <share>"); err != nil {
			return err
		}
		share, err := parseShare(rest[1])
		if err != nil {
			return err
		}
		return c.send("POST", "/v1/beneficiaries", map[string]any{"account": rest[0], "share": share})
	case "remove-beneficiary":
		if err := need(rest, 1, "remove-beneficiary <address>"); err != nil {
			return err
		}
		return c.send("DELETE", "/v1/beneficiaries/"+rest[0], nil)
	case "approve":
		if err := need(rest, 2, "approve <spender> <amount> [expires-at-unix]"); err != nil {
			return err
		}
		body := map[string]any{"spender": rest[0], "amount": rest[1]}
		if len(rest) > 2 {
			expiry, err := parseExpiry(rest[2])
			if err != nil {
				return err
			}
			body["expiresAt"] = expiry
		}
		return c.send("POST", "/v1/approvals", body)
	case "revoke":
		if err := need(rest, 1, "revoke <spender>"); err != nil {
			return err
		}
		return c.send("DELETE", "/v1/approvals/"+rest[0], nil)
	case "withdraw":
		if err := need(rest, 1, "withdraw <amount>"); err != nil {
			return err
		}
		return c.send("POST", "/v1/withdrawals", map[string]any{"amount": rest[0]})
	case "withdraw-all":
		return c.send("POST", "/v1/withdrawals/all", nil)
	case "withdraw-from":
		if err := need(rest, 2, "withdraw-from <owner> <amount>"); err != nil {
			return err
		}
		return c.send("POST", "/v1/withdrawals/delegated", map[string]any{"owner": rest[0], "amount": rest[1]})
	case "add-manager":
		if err := need(rest, 1, "add-manager <address>"); err != nil {
			return err
		}
		return c.send("POST", "/v1/managers", map[string]any{"account": rest[0]})
	case "remove-manager":
		if err := need(rest, 1, "remove-manager <address>"); err != nil {
			return err
		}
		return c.send("DELETE", "/v1/managers/"+rest[0], nil)
	case "pause":
		return c.send("POST", "/v1/pause", nil)
	case "unpause":
		return c.send("POST", "/v1/unpause", nil)
	case "transfer-ownership":
		if err := need(rest, 1, "transfer-ownership <address>"); err != nil {
			return err
		}
		return c.send("POST", "/v1/owner", map[string]any{"owner": rest[0]})
	case "faucet":
		if err := need(rest, 1, "faucet <amount> [address]"); err != nil {
			return err
		}
		body := map[string]any{"amount": rest[0]}
		if len(rest) > 1 {
			body["account"] = rest[1]
		}
		return c.send("POST", "/v1/faucet", body)
	case "help", "-h", "--help":
		printUsage(c.out)
		return nil
	default:
		printUsage(c.out)
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: splitpay-cli [--rpc URL] [--token JWT] <command> [arguments]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Keys:")
	fmt.Fprintln(w, "  keygen <keystore>                      - Generate a key into an encrypted keystore")
	fmt.Fprintln(w, "  address <keystore|address>             - Print the bech32 and hex forms of an address")
	fmt.Fprintln(w, "  token <keystore|address> [ttl]         - Mint a caller token (needs "+secretEnv+")")
	fmt.Fprintln(w, "Queries:")
	fmt.Fprintln(w, "  owner | shares | paused | stats | beneficiaries")
	fmt.Fprintln(w, "  beneficiary <addr> | manager <addr> | balance <addr>")
	fmt.Fprintln(w, "  approval <owner> <spender> | events [after-seq]")
	fmt.Fprintln(w, "Calls (authenticated with --token or "+tokenEnv+"):")
	fmt.Fprintln(w, "  pay <amount>")
	fmt.Fprintln(w, "  add-beneficiary <addr> <share> | remove-beneficiary <addr>")
	fmt.Fprintln(w, "  approve <spender> <amount> [expires-at-unix] | revoke <spender>")
	fmt.Fprintln(w, "  withdraw <amount> | withdraw-all | withdraw-from <owner> <amount>")
	fmt.Fprintln(w, "  add-manager <addr> | remove-manager <addr> | pause | unpause")
	fmt.Fprintln(w, "  transfer-ownership <addr> | faucet <amount> [addr]")
}
