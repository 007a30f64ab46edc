// Copyright 2021 The go-steward Authors
// This file is part of go-steward.
//
// go-steward is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-steward is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-steward. If not, see <http://www.gnu.org/licenses/>.

// steward is a command line tool for working with call scripts and running
// scripted scenarios against an in-memory (or on-disk) actor.
package main

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"gopkg.in/urfave/cli.v1"

	"github.com/stewardproject/go-steward/acl"
	"github.com/stewardproject/go-steward/common"
	"github.com/stewardproject/go-steward/core/actor"
	"github.com/stewardproject/go-steward/core/script"
	"github.com/stewardproject/go-steward/core/state"
	"github.com/stewardproject/go-steward/core/vm"
	"github.com/stewardproject/go-steward/stewarddb"
)

const clientIdentifier = "steward"

var (
	verbosityFlag = cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity (debug, info, warn, error)",
		Value: "info",
	}
	datadirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "Directory for the state database (in-memory when empty)",
	}

	encodeCommand = cli.Command{
		Action:      encodeScript,
		Name:        "encode",
		Usage:       "Encode a call script",
		ArgsUsage:   "<address:hexdata> [address:hexdata...]",
		Category:    "SCRIPT COMMANDS",
		Description: `Packs the given target/payload pairs into a call-script blob and prints it as hex.`,
	}
	decodeCommand = cli.Command{
		Action:      decodeScript,
		Name:        "decode",
		Usage:       "Decode a call script",
		ArgsUsage:   "<hexblob>",
		Category:    "SCRIPT COMMANDS",
		Description: `Parses a call-script blob and lists its execution requests.`,
	}
	runCommand = cli.Command{
		Action:    runScript,
		Name:      "run",
		Usage:     "Run a call script through a configured actor",
		ArgsUsage: "<hexblob>",
		Flags:     []cli.Flag{configFileFlag, datadirFlag},
		Category:  "SCRIPT COMMANDS",
		Description: `Sets up an actor from the TOML configuration, forwards the given call
script on behalf of the configured caller and prints the per-item returns,
the recorded events and the demo counter value.`,
	}
)

var app = cli.NewApp()

func init() {
	app.Name = clientIdentifier
	app.Usage = "the call-script command line interface"
	app.Flags = []cli.Flag{verbosityFlag}
	app.Commands = []cli.Command{
		encodeCommand,
		decodeCommand,
		runCommand,
		dumpConfigCommand,
	}
	app.Before = func(ctx *cli.Context) error {
		lvl, err := logging.LevelFromString(ctx.GlobalString(verbosityFlag.Name))
		if err != nil {
			return err
		}
		logging.SetAllLoggers(lvl)
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// encodeScript is the encode command.
func encodeScript(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return fmt.Errorf("need at least one address:hexdata argument")
	}
	var calls []script.Call
	for _, arg := range ctx.Args() {
		parts := strings.SplitN(arg, ":", 2)
		if !common.IsHexAddress(parts[0]) {
			return fmt.Errorf("invalid target address %q", parts[0])
		}
		call := script.Call{To: common.HexToAddress(parts[0])}
		if len(parts) == 2 {
			data, err := hex.DecodeString(strings.TrimPrefix(parts[1], "0x"))
			if err != nil {
				return fmt.Errorf("invalid payload in %q: %v", arg, err)
			}
			call.Data = data
		}
		calls = append(calls, call)
	}
	fmt.Printf("0x%x\n", script.Encode(calls))
	return nil
}

// decodeScript is the decode command.
func decodeScript(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("need exactly one hex blob argument")
	}
	blob, err := hex.DecodeString(strings.TrimPrefix(ctx.Args().First(), "0x"))
	if err != nil {
		return err
	}
	decoded, err := script.Decode(blob)
	if err != nil {
		return err
	}
	fmt.Printf("spec %#x, %d item(s)\n", decoded.ID, len(decoded.Calls))
	for i, call := range decoded.Calls {
		fmt.Printf("  %d: %s  %d byte payload  0x%x\n", i, call.To, len(call.Data), call.Data)
	}
	return nil
}

// runScript is the run command.
func runScript(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("need exactly one hex blob argument")
	}
	blob, err := hex.DecodeString(strings.TrimPrefix(ctx.Args().First(), "0x"))
	if err != nil {
		return err
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}

	var db stewarddb.Database
	if dir := ctx.String(datadirFlag.Name); dir != "" {
		ldb, err := stewarddb.NewLevelDB(dir)
		if err != nil {
			return err
		}
		db = ldb
	} else {
		db = stewarddb.NewMemoryDB()
	}
	defer db.Close()

	statedb := state.New(db)
	env := vm.NewEnv(statedb)
	counterAddr := common.HexToAddress(cfg.Counter)
	env.Register(counterAddr, counterContract{})

	for _, account := range cfg.Accounts {
		if !common.IsHexAddress(account.Address) {
			return fmt.Errorf("invalid account address %q", account.Address)
		}
		statedb.SetBalance(common.HexToAddress(account.Address), new(big.Int).SetUint64(account.Balance))
	}

	actorAddr := common.HexToAddress(cfg.Actor)
	perms := acl.New()
	for _, grant := range cfg.Grants {
		role, err := roleByName(grant.Role)
		if err != nil {
			return err
		}
		perms.Grant(common.HexToAddress(grant.Entity), actorAddr, role)
	}

	proxy := actor.New(actorAddr, env, perms)
	if err := proxy.Initialize(); err != nil {
		return err
	}

	caller := common.HexToAddress(cfg.Caller)
	returns, err := proxy.Forward(caller, blob)
	if err != nil {
		return err
	}
	for i, ret := range returns {
		fmt.Printf("item %d returned 0x%x\n", i, ret)
	}
	for _, event := range statedb.Logs() {
		fmt.Printf("event %s topics %v\n", event.Address, event.Topics)
	}
	fmt.Printf("counter is now %s\n", statedb.GetState(counterAddr, counterSlot).Big())
	return statedb.Commit()
}

func roleByName(name string) (common.Hash, error) {
	switch name {
	case "EXECUTE_ROLE":
		return actor.ExecuteRole, nil
	case "RUN_SCRIPT_ROLE":
		return actor.RunScriptRole, nil
	default:
		return common.Hash{}, fmt.Errorf("unknown role %q", name)
	}
}
