package chain

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
)

// Client wraps one or more RPC endpoints for a program family, falling
// back to the next configured endpoint on error the way the teacher's
// blockchain client does (warn-log-and-continue across rpcClients).
type Client struct {
	rpcClients []*rpc.Client
	commitment rpc.CommitmentType
	logger     zerolog.Logger
}

// NewClient builds a Client over one rpc.Client per configured endpoint.
func NewClient(endpoints []string, commitment string, logger zerolog.Logger) (*Client, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("chain: at least one RPC endpoint is required")
	}
	clients := make([]*rpc.Client, 0, len(endpoints))
	for _, ep := range endpoints {
		clients = append(clients, rpc.New(ep))
	}
	return &Client{
		rpcClients: clients,
		commitment: parseCommitment(commitment),
		logger:     logger.With().Str("component", "chain.client").Logger(),
	}, nil
}

func parseCommitment(s string) rpc.CommitmentType {
	switch s {
	case "processed":
		return rpc.CommitmentProcessed
	case "finalized":
		return rpc.CommitmentFinalized
	case "confirmed", "":
		return rpc.CommitmentConfirmed
	default:
		return rpc.CommitmentConfirmed
	}
}

// GetSignaturesForAddress issues "signatures for address, until cursor"
// per spec.md §4.2/§6, falling back across configured endpoints on error.
func (c *Client) GetSignaturesForAddress(ctx context.Context, programID string, limit int, until string) ([]SignatureInfo, error) {
	addr, err := solana.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, fmt.Errorf("chain: invalid program address %q: %w", programID, err)
	}

	opts := &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: c.commitment,
	}
	if until != "" {
		sig, err := solana.SignatureFromBase58(until)
		if err != nil {
			return nil, fmt.Errorf("chain: invalid cursor signature %q: %w", until, err)
		}
		opts.Until = sig
	}

	var lastErr error
	for _, rc := range c.rpcClients {
		out, err := rc.GetSignaturesForAddressWithOpts(ctx, addr, opts)
		if err != nil {
			lastErr = err
			c.logger.Warn().Err(err).Msg("signatures_for_address failed, trying next endpoint")
			continue
		}
		result := make([]SignatureInfo, 0, len(out))
		for _, s := range out {
			var blockTime *int64
			if s.BlockTime != nil {
				t := int64(*s.BlockTime)
				blockTime = &t
			}
			result = append(result, SignatureInfo{
				Signature: s.Signature.String(),
				Slot:      s.Slot,
				BlockTime: blockTime,
				Err:       s.Err != nil,
			})
		}
		return result, nil
	}
	return nil, fmt.Errorf("chain: all endpoints failed: %w", lastErr)
}

// GetParsedTransaction issues "parsed transaction by signature" with
// jsonParsed encoding, per spec.md §6.
func (c *Client) GetParsedTransaction(ctx context.Context, signature string) (*RawTransaction, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("chain: invalid signature %q: %w", signature, err)
	}

	maxVersion := uint64(0)
	opts := &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingJSONParsed,
		Commitment:                     c.commitment,
		MaxSupportedTransactionVersion: &maxVersion,
	}

	var lastErr error
	for _, rc := range c.rpcClients {
		out, err := rc.GetTransaction(ctx, sig, opts)
		if err != nil {
			lastErr = err
			c.logger.Warn().Err(err).Str("signature", signature).Msg("get_parsed_transaction failed, trying next endpoint")
			continue
		}
		if out == nil {
			return nil, nil
		}
		return convertTransaction(signature, out)
	}
	return nil, fmt.Errorf("chain: all endpoints failed: %w", lastErr)
}
