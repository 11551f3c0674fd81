package genesis

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"

	"splitpay/crypto"
	"splitpay/native/bank"
	"splitpay/native/splitpay"
)

// GenesisSpec describes the initial ledger: who owns it, who manages it,
// who is paid and which host accounts start funded.
type GenesisSpec struct {
	Owner         string            `yaml:"owner"`
	Managers      []string          `yaml:"managers"`
	Beneficiaries []BeneficiarySpec `yaml:"beneficiaries"`
	Alloc         map[string]string `yaml:"alloc"` // addr -> amount
	Paused        bool              `yaml:"paused"`

	owner         [20]byte
	managers      [][20]byte
	beneficiaries []parsedBeneficiary
	alloc         []parsedAlloc
}

// BeneficiarySpec registers one beneficiary at genesis.
type BeneficiarySpec struct {
	Account string `yaml:"account"`
	Share   uint8  `yaml:"share"`
}

type parsedBeneficiary struct {
	account [20]byte
	share   uint8
}

type parsedAlloc struct {
	account [20]byte
	amount  *uint256.Int
}

// LoadGenesisSpec reads and validates the YAML genesis file at path.
func LoadGenesisSpec(path string) (*GenesisSpec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis spec path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis spec %q: %w", path, err)
	}
	return ParseGenesisSpec(raw)
}

// ParseGenesisSpec decodes and validates a YAML genesis document.
func ParseGenesisSpec(raw []byte) (*GenesisSpec, error) {
	var spec GenesisSpec
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode genesis spec: %w", err)
	}
	if err := spec.validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

func parseAccount(field, value string) ([20]byte, error) {
	addr, err := crypto.ParseAddress(value)
	if err != nil {
		return [20]byte{}, fmt.Errorf("%s: %w", field, err)
	}
	if addr.IsZero() {
		return [20]byte{}, fmt.Errorf("%s: zero address", field)
	}
	return addr.Array(), nil
}

func parseAmountString(value string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if !splitpay.ValidAmount(amount) {
		return nil, fmt.Errorf("amount %q exceeds 128 bits", value)
	}
	return amount, nil
}

func (s *GenesisSpec) validate() error {
	owner, err := parseAccount("owner", s.Owner)
	if err != nil {
		return err
	}
	s.owner = owner

	s.managers = s.managers[:0]
	for i, m := range s.Managers {
		addr, err := parseAccount(fmt.Sprintf("managers[%d]", i), m)
		if err != nil {
			return err
		}
		s.managers = append(s.managers, addr)
	}

	seen := make(map[[20]byte]struct{}, len(s.Beneficiaries))
	var total uint
	s.beneficiaries = s.beneficiaries[:0]
	for i, b := range s.Beneficiaries {
		field := fmt.Sprintf("beneficiaries[%d]", i)
		addr, err := parseAccount(field+".account", b.Account)
		if err != nil {
			return err
		}
		if addr == bank.PoolAddress {
			return fmt.Errorf("%s: pool account is reserved", field)
		}
		if _, dup := seen[addr]; dup {
			return fmt.Errorf("%s: duplicate account %s", field, b.Account)
		}
		seen[addr] = struct{}{}
		if b.Share == 0 || b.Share > 100 {
			return fmt.Errorf("%s.share must be within 1..100", field)
		}
		total += uint(b.Share)
		if total > 100 {
			return fmt.Errorf("beneficiary shares sum to more than 100")
		}
		s.beneficiaries = append(s.beneficiaries, parsedBeneficiary{account: addr, share: b.Share})
	}

	s.alloc = s.alloc[:0]
	for account, value := range s.Alloc {
		addr, err := parseAccount("alloc", account)
		if err != nil {
			return err
		}
		if addr == bank.PoolAddress {
			return fmt.Errorf("alloc[%s]: pool account is reserved", account)
		}
		amount, err := parseAmountString(value)
		if err != nil {
			return fmt.Errorf("alloc[%s]: %w", account, err)
		}
		s.alloc = append(s.alloc, parsedAlloc{account: addr, amount: amount})
	}
	return nil
}
