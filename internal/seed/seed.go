package seed

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/libreria-pagine/turni/backend/internal/domain"
	"github.com/libreria-pagine/turni/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	GetUserByUsername(username string) (*domain.User, error)
	CreateUser(user *domain.User) error
}

type StaffAccount struct {
	Username string
	Worker   string
	Password string // 只有新建的账户才有
	Created  bool
}

/**
 * SeedStaff 为排班表中的每个员工创建一个店员账户
 * 已经存在的用户名会被跳过，可以重复执行
 */
func SeedStaff(r UserStore, roster domain.Roster, emailDomain string, passwordLength int) ([]StaffAccount, error) {
	accounts := make([]StaffAccount, 0, len(roster.Workers))

	for _, w := range roster.Workers {
		username := utils.UsernameFromWorker(w.Name)
		if username == "" {
			return nil, fmt.Errorf("impossibile ricavare un nome utente da %q", w.Name)
		}

		_, err := r.GetUserByUsername(username)
		switch {
		case err == nil:
			slog.Info("utente già presente", "username", username)
			accounts = append(accounts, StaffAccount{Username: username, Worker: w.Name})
			continue
		case !errors.Is(err, sql.ErrNoRows):
			return nil, err
		}

		password := utils.GenerateRandomPassword(passwordLength)
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}

		user := &domain.User{
			Username:     username,
			PasswordHash: string(hash),
			FullName:     w.Name,
			Email:        username + "@" + emailDomain,
			Role:         domain.RoleClerk,
			WorkerName:   w.Name,
		}
		if err := r.CreateUser(user); err != nil {
			return nil, fmt.Errorf("creazione dell'utente %s fallita: %w", username, err)
		}

		slog.Info("utente creato", "username", username, "worker", w.Name)
		accounts = append(accounts, StaffAccount{Username: username, Worker: w.Name, Password: password, Created: true})
	}

	return accounts, nil
}
