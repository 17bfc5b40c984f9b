package scheduler

import (
	"fmt"
	"os"

	"github.com/libreria-pagine/turni/backend/internal/domain"
	"gopkg.in/yaml.v3"
)

// LoadRoster 从 YAML 文件读取排班表，路径为空时使用默认的三人排班表
func LoadRoster(path string) (domain.Roster, error) {
	if path == "" {
		return domain.DefaultRoster(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Roster{}, fmt.Errorf("impossibile leggere l'organico: %w", err)
	}

	return ParseRoster(data)
}

func ParseRoster(data []byte) (domain.Roster, error) {
	roster := domain.Roster{RotationCap: domain.DefaultRoster().RotationCap}
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return domain.Roster{}, fmt.Errorf("organico non valido: %w", err)
	}

	// 在这里校验，避免服务启动后才发现排班表有问题
	if _, err := New(roster); err != nil {
		return domain.Roster{}, err
	}

	return roster, nil
}
