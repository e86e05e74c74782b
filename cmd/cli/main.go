package main

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/config"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/elastic_search"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/messenger"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/signature"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var newMessageService = func() (messenger.MessageService, error) {
	cfg := config.Get()
	return messenger.NewMessageService(cfg.Messenger, cfg.Aws)
}

func main() {
	config.Init()

	if err := newApp().Run(os.Args); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Command failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "tokomarket",
		Usage: "marketplace order and index tooling",
		Commands: []*cli.Command{
			{
				Name:   "sign-order",
				Usage:  "Sign an order with a mnemonic derived or raw private key",
				Action: signOrder,
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "mnemonic", EnvVars: []string{"SIGNER_MNEMONIC"}, Usage: "BIP-39 mnemonic"},
					&cli.StringFlag{Name: "path", Value: signature.DefaultDerivationPath, Usage: "HD derivation path"},
					&cli.StringFlag{Name: "key", EnvVars: []string{"SIGNER_KEY"}, Usage: "hex private key, used when no mnemonic is given"},
				}, domainFlags()...),
			},
			{
				Name:   "hash-order",
				Usage:  "Print the EIP-712 digest of an order",
				Action: hashOrder,
				Flags:  domainFlags(),
			},
			{
				Name:   "recover-signer",
				Usage:  "Recover the account that signed an order",
				Action: recoverSigner,
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "signature", Required: true, Usage: "65 byte hex signature"},
				}, domainFlags()...),
			},
			{
				Name:   "install-mappings",
				Usage:  "Create the search indices from the mapping files",
				Action: installMappings,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dir", Value: config.Get().ElasticSearch.MappingDir, Usage: "mapping directory"},
					&cli.BoolFlag{Name: "reindex", Usage: "drop existing indices first"},
				},
			},
			{
				Name:   "subscribe",
				Usage:  "Print published marketplace events until interrupted",
				Action: subscribe,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Usage: "only this event type, e.g. Trade"},
				},
			},
		},
	}
}

func domainFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{Name: "chain-id", Value: config.Get().Marketplace.ChainId, Usage: "EIP-712 domain chain id"},
		&cli.StringFlag{Name: "verifying-contract", Value: config.Get().Marketplace.OrderMatchAddress, Usage: "order match engine address"},
		&cli.StringFlag{Name: "order", Value: "-", Usage: "order JSON file, - for stdin"},
	}
}

func signOrder(c *cli.Context) error {
	signer, order, err := readOrder(c)
	if err != nil {
		return err
	}

	var (
		key     *ecdsa.PrivateKey
		account common.Address
	)
	switch {
	case c.String("mnemonic") != "":
		key, account, err = signature.KeyFromMnemonic(c.String("mnemonic"), c.String("path"))
	case c.String("key") != "":
		key, account, err = signature.KeyFromHex(c.String("key"))
	default:
		err = errors.New("either --mnemonic or --key is required")
	}
	if err != nil {
		return err
	}

	if order.Seller == (common.Address{}) {
		order.Seller = account
	}
	if order.Seller != account {
		return errors.Errorf("order seller %s does not match signer %s", order.Seller.Hex(), account.Hex())
	}

	sig, err := signer.Sign(order, key)
	if err != nil {
		return err
	}

	return printJSON(c.App.Writer, map[string]interface{}{
		"order":     order,
		"signature": sig.Hex(),
		"signer":    account,
	})
}

func hashOrder(c *cli.Context) error {
	signer, order, err := readOrder(c)
	if err != nil {
		return err
	}

	hash, err := signer.Hash(order)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.App.Writer, hash.Hex())
	return err
}

func recoverSigner(c *cli.Context) error {
	signer, order, err := readOrder(c)
	if err != nil {
		return err
	}

	raw, err := hexutil.Decode(c.String("signature"))
	if err != nil {
		return errors.Wrap(err, "decode signature")
	}
	sig, ok := entity.SignatureFromBytes(raw)
	if !ok {
		return errors.New("signature must be 65 bytes")
	}

	account, err := signer.Recover(order, sig)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.App.Writer, account.Hex())
	return err
}

func installMappings(c *cli.Context) error {
	cfg := config.Get()
	elastic, err := elastic_search.New(cfg.ElasticSearch, cfg.Aws)
	if err != nil {
		return err
	}

	if err := elastic.InstallMappings(context.Background(), c.String("dir"), c.Bool("reindex")); err != nil {
		return err
	}
	zap.L().Info("Mappings installed")

	return nil
}

func subscribe(c *cli.Context) error {
	service, err := newMessageService()
	if err != nil {
		return err
	}
	if service == nil {
		return errors.New("messenger driver is none, nothing to subscribe to")
	}

	item := messenger.MarketEvent
	if eventType := c.String("type"); eventType != "" {
		item = messenger.EventItem(eventType)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	zap.L().With(zap.String("item", string(item))).Info("Subscribed to market events")
	return service.ConsumeMessages(ctx, item, func(msg string) {
		fmt.Fprintln(c.App.Writer, msg)
	})
}

func readOrder(c *cli.Context) (*signature.EIP712, entity.SignedOrder, error) {
	var order entity.SignedOrder

	contract := c.String("verifying-contract")
	if !common.IsHexAddress(contract) {
		return nil, order, errors.Errorf("invalid verifying contract %q", contract)
	}
	signer := signature.NewEIP712(signature.NewDomain(c.Int64("chain-id"), common.HexToAddress(contract)))

	var in io.Reader = c.App.Reader
	if path := c.String("order"); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, order, errors.Wrap(err, "open order")
		}
		defer f.Close()
		in = f
	}

	if err := json.NewDecoder(in).Decode(&order); err != nil {
		return nil, order, errors.Wrap(err, "decode order")
	}

	return signer, order, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
