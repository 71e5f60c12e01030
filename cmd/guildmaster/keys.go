package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/guildmaster/internal/security/secretbox"
)

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Genera una clave maestra nueva para GUILDMASTER_MASTER_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			key := make([]byte, 32)
			if _, err := rand.Read(key); err != nil {
				return err
			}
			fmt.Println(base64.StdEncoding.EncodeToString(key))
			return nil
		},
	}
}

func newEncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enc <plaintext>",
		Short: "Cifra un valor con la clave maestra (para secretos en YAML/env)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !secretbox.Ready() {
				return fmt.Errorf("GUILDMASTER_MASTER_KEY no está configurada")
			}
			out, err := secretbox.Encrypt(args[0])
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}
