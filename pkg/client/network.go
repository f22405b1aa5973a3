package client

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/blobbench/blobbench/internal/common/bencherrors"
)

// Network describes one deployment of the storage network. The set of known
// networks is closed; endpoint overrides may repoint a network but plans
// cannot invent new names.
type Network struct {
	Name string
	// ChainID of the EVM-compatible chain backing the network.
	ChainID int64
	// ChainUrl is the JSON-RPC endpoint for chain transactions.
	ChainUrl string
	// ObjectUrl is the host[:port] of the S3-compatible object gateway.
	ObjectUrl string
	// ObjectTls says whether the object gateway is reached over TLS.
	ObjectTls bool
	// CreditContract receives credit purchase transactions.
	CreditContract string
}

// The credit module lives at the same well-known address on every deployment.
const creditContractAddress = "0x0000000000000000000000000000000000000f10"

var networks = map[string]Network{
	"mainnet": {
		Name:           "mainnet",
		ChainID:        4521,
		ChainUrl:       "https://chain.blobnet.dev",
		ObjectUrl:      "objects.blobnet.dev",
		ObjectTls:      true,
		CreditContract: creditContractAddress,
	},
	"testnet": {
		Name:           "testnet",
		ChainID:        24816,
		ChainUrl:       "https://chain.testnet.blobnet.dev",
		ObjectUrl:      "objects.testnet.blobnet.dev",
		ObjectTls:      true,
		CreditContract: creditContractAddress,
	},
	"devnet": {
		Name:           "devnet",
		ChainID:        24817,
		ChainUrl:       "https://chain.devnet.blobnet.dev",
		ObjectUrl:      "objects.devnet.blobnet.dev",
		ObjectTls:      true,
		CreditContract: creditContractAddress,
	},
	"localnet": {
		Name:           "localnet",
		ChainID:        31337,
		ChainUrl:       "http://localhost:8545",
		ObjectUrl:      "localhost:9000",
		ObjectTls:      false,
		CreditContract: creditContractAddress,
	},
}

// NetworkByName resolves a network identifier from the closed set of known names.
func NetworkByName(name string) (Network, error) {
	if network, ok := networks[name]; ok {
		return network, nil
	}
	return Network{}, errors.WithStack(&bencherrors.ErrInvalidArgument{
		Name:    "network",
		Value:   name,
		Message: "unknown network; known networks are " + strings.Join(KnownNetworks(), ", "),
	})
}

// KnownNetworks returns the names of all known networks, sorted.
func KnownNetworks() []string {
	names := maps.Keys(networks)
	slices.Sort(names)
	return names
}
