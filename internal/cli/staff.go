package cli

import (
	"github.com/libreria-pagine/turni/backend/internal/seed"
	"github.com/spf13/cobra"
)

// SeedStaffCmd 为排班表中还没有账号的员工创建账号
func SeedStaffCmd() *cobra.Command {
	var emailDomain string
	var passwordLength int

	cmd := &cobra.Command{
		Use:   "seed-staff",
		Short: "Crea un account commesso per ogni dipendente dell'organico",
		Long: `Crea un account per ogni dipendente dell'organico che non ne ha ancora uno.
Le password generate vengono stampate una sola volta.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			accounts, err := seed.SeedStaff(e.repo, e.roster, emailDomain, passwordLength)
			if err != nil {
				return err
			}

			t := &table{header: []string{"UTENTE", "DIPENDENTE", "PASSWORD"}}
			for _, a := range accounts {
				password := a.Password
				if !a.Created {
					password = "(già presente)"
				}
				t.add(a.Username, a.Worker, password)
			}
			t.render(cmd.OutOrStdout(), plain)
			return nil
		},
	}

	cmd.Flags().StringVar(&emailDomain, "email-domain", "libreria.example", "dominio delle email generate")
	cmd.Flags().IntVar(&passwordLength, "password-length", 12, "lunghezza delle password generate")
	return cmd
}
