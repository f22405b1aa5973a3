package client

import (
	"time"
)

// ConnectionDetails carry everything needed to reach one network deployment.
// Endpoint fields are optional overrides of the named network's defaults,
// useful against port-forwarded or self-hosted deployments.
type ConnectionDetails struct {
	// Network is one of the known network names, see KnownNetworks.
	Network string
	// ChainUrl overrides the network's chain JSON-RPC endpoint.
	ChainUrl string
	// ObjectUrl overrides the network's object gateway host[:port].
	ObjectUrl string
	// ObjectTls overrides whether the object gateway is reached over TLS.
	// Only consulted together with ObjectUrl.
	ObjectTls bool
	// AccessKey and SecretKey authenticate against the object gateway.
	AccessKey string
	SecretKey string
	// ReceiptTimeout bounds how long chain transactions wait for confirmation.
	ReceiptTimeout time.Duration
}

const defaultReceiptTimeout = time.Minute

// New builds a Client for the given target from the connection details.
func New(details *ConnectionDetails, target Target) (Client, error) {
	network, err := NetworkByName(details.Network)
	if err != nil {
		return nil, err
	}
	if details.ChainUrl != "" {
		network.ChainUrl = details.ChainUrl
	}
	if details.ObjectUrl != "" {
		network.ObjectUrl = details.ObjectUrl
		network.ObjectTls = details.ObjectTls
	}

	gateway, err := newGatewayClient(network, details.AccessKey, details.SecretKey)
	if err != nil {
		return nil, err
	}

	switch target {
	case TargetS3:
		return &s3Client{gatewayClient: gateway}, nil
	default:
		receiptTimeout := details.ReceiptTimeout
		if receiptTimeout <= 0 {
			receiptTimeout = defaultReceiptTimeout
		}
		return newChainClient(network, gateway, receiptTimeout)
	}
}
