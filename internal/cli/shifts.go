package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/libreria-pagine/turni/backend/internal/config"
	"github.com/libreria-pagine/turni/backend/internal/domain"
	"github.com/libreria-pagine/turni/backend/internal/planner"
	"github.com/libreria-pagine/turni/backend/internal/repository"
	"github.com/libreria-pagine/turni/backend/internal/seed"
	"github.com/libreria-pagine/turni/backend/internal/utils"
	"github.com/spf13/cobra"
)

// PreviewCmd 只计算不写入，不需要数据库
func PreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Calcola i turni di un mese senza salvarli",
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := monthFlag(cmd, "month")
			if err != nil {
				return err
			}

			cfg, err := config.LoadPlannerConfig()
			if err != nil {
				return err
			}
			s, err := loadScheduler(cfg)
			if err != nil {
				return err
			}

			preview, err := planner.New(s, nil, 1).Preview(month)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printShifts(out, preview.Shifts)
			fmt.Fprintln(out)
			printQuotas(out, preview.Quotas)
			fmt.Fprintf(out, "Rotazioni assegnate: %d\n\n", preview.RotationAssignments)
			printStats(out, preview.Stats)
			return nil
		},
	}

	cmd.Flags().String("month", "", "mese da calcolare (AAAA-MM)")
	return cmd
}

// GenerateCmd 生成单个月份或一个区间，已有班次的月份跳过
func GenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Genera e salva i turni di un mese o di un intervallo di mesi",
		Long: `Genera i turni di un mese (--month) o di tutti i mesi tra --from e --to inclusi.
I mesi che hanno già dei turni vengono saltati senza modifiche.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			single, _ := cmd.Flags().GetString("month")
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")

			if (single == "") == (from == "" && to == "") {
				return errors.New("usa --month oppure --from e --to")
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if single != "" {
				month, err := domain.ParseMonth(single)
				if err != nil {
					return err
				}
				res, err := e.planner.Generate(ctx, month)
				if err != nil {
					return err
				}
				printResult(out, res)
				return nil
			}

			fromMonth, err := monthFlag(cmd, "from")
			if err != nil {
				return err
			}
			toMonth, err := monthFlag(cmd, "to")
			if err != nil {
				return err
			}

			// 出错时仍然打印已经保存的月份
			results, err := e.planner.GenerateRange(ctx, fromMonth, toMonth)
			for _, res := range results {
				if res != nil {
					printResult(out, res)
				}
			}
			return err
		},
	}

	cmd.Flags().String("month", "", "mese da generare (AAAA-MM)")
	cmd.Flags().String("from", "", "primo mese dell'intervallo (AAAA-MM)")
	cmd.Flags().String("to", "", "ultimo mese dell'intervallo (AAAA-MM)")
	return cmd
}

// StatsCmd 统计已经保存的班次
func StatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Mostra le statistiche dei turni salvati di un mese",
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := monthFlag(cmd, "month")
			if err != nil {
				return err
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			stats, err := e.planner.Stats(cmd.Context(), month)
			if err != nil {
				return err
			}

			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}

	cmd.Flags().String("month", "", "mese (AAAA-MM)")
	return cmd
}

// ExportCmd 导出为 CSV，--out 为 - 时写到标准输出
func ExportCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Esporta in CSV i turni salvati di un mese",
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := monthFlag(cmd, "month")
			if err != nil {
				return err
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			shifts, err := e.repo.ListShiftsByMonth(cmd.Context(), month)
			if err != nil {
				return err
			}

			if outPath == "" || outPath == "-" {
				return seed.WriteCSV(cmd.OutOrStdout(), shifts)
			}

			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := seed.WriteCSV(f, shifts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "esportati %d turni in %s\n", len(shifts), outPath)
			return f.Close()
		},
	}

	cmd.Flags().String("month", "", "mese (AAAA-MM)")
	cmd.Flags().StringVar(&outPath, "out", "-", "file di destinazione, - per lo standard output")
	return cmd
}

// ImportCmd 从 CSV 导入，月份必须还没有班次
func ImportCmd() *cobra.Command {
	var inPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Importa da CSV i turni di un mese che non ha ancora turni",
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := monthFlag(cmd, "month")
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if inPath != "" && inPath != "-" {
				f, err := os.Open(inPath)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			shifts, err := seed.ReadCSV(in, month)
			if err != nil {
				return err
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			if err := utils.ValidateMonthShifts(month, e.roster, shifts); err != nil {
				return err
			}

			if err := e.repo.InsertMonthShifts(cmd.Context(), month, shifts); err != nil {
				if errors.Is(err, repository.ErrMonthAlreadyGenerated) {
					return fmt.Errorf("%s: %w, eliminali prima con 'turni delete'", month, err)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "importati %d turni per %s\n", len(shifts), month)
			return nil
		},
	}

	cmd.Flags().String("month", "", "mese (AAAA-MM)")
	cmd.Flags().StringVar(&inPath, "in", "-", "file CSV, - per lo standard input")
	return cmd
}

// DeleteCmd 删除整个月份，默认需要确认
func DeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Elimina tutti i turni salvati di un mese",
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := monthFlag(cmd, "month")
			if err != nil {
				return err
			}

			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "Eliminare tutti i turni di %s? [s/N] ", month)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "s" && a != "si" && a != "sì" {
					fmt.Fprintln(cmd.OutOrStdout(), "annullato")
					return nil
				}
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			n, err := e.planner.Delete(cmd.Context(), month)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "eliminati %d turni di %s\n", n, month)
			return nil
		},
	}

	cmd.Flags().String("month", "", "mese (AAAA-MM)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "non chiedere conferma")
	return cmd
}
