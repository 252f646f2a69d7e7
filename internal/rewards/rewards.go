// Package rewards holds the reward catalog and exchanges EcoPoints for rewards.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/ecosphere/ecosphere/internal/progression"
	"github.com/ecosphere/ecosphere/internal/user"
)

// Predefined errors.
var (
	ErrRewardNotFound    = errors.New("reward not found")
	ErrRewardUnavailable = errors.New("reward unavailable")
)

// Category groups rewards in the catalog.
type Category string

// Reward categories.
const (
	CategoryEducation   Category = "education"
	CategoryProducts    Category = "products"
	CategoryDigital     Category = "digital"
	CategoryExperiences Category = "experiences"
	CategoryDonations   Category = "donations"
)

// Reward is a catalog item that can be exchanged for EcoPoints.
type Reward struct {
	ID          int      `json:"id"`
	Category    Category `json:"category"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Points      int      `json:"points"`
	Icon        string   `json:"icon"`
	Available   bool     `json:"available"`
}

var catalog = []Reward{
	{1, CategoryEducation, "Curso de Sustentabilidade", "Certificado online de 20h sobre práticas sustentáveis", 300, "🎓", true},
	{2, CategoryEducation, "E-book Ambiental", "Coleção de 5 e-books sobre meio ambiente", 150, "📚", true},
	{3, CategoryEducation, "Webinar Exclusivo", "Acesso a webinars mensais com especialistas", 200, "💻", true},
	{4, CategoryEducation, "Mentoria Verde", "1h de mentoria com consultor ambiental", 500, "👨‍🏫", false},
	{5, CategoryProducts, "Garrafa Reutilizável", "Garrafa de aço inox 500ml com design exclusivo", 200, "🍶", true},
	{6, CategoryProducts, "Kit Canudos de Bambu", "Set com 4 canudos de bambu + escova de limpeza", 100, "🎋", true},
	{7, CategoryProducts, "Sacola Ecológica", "Sacola de algodão orgânico reutilizável", 80, "👜", true},
	{8, CategoryProducts, "Kit Limpeza Natural", "Produtos de limpeza biodegradáveis", 350, "🧽", true},
	{9, CategoryDigital, "Tema Premium", "Desbloqueie temas exclusivos para o app", 50, "🎨", true},
	{10, CategoryDigital, "Badge Especial", "Badge única \"Eco Champion\" para seu perfil", 100, "🏆", true},
	{11, CategoryDigital, "Relatório Avançado", "Acesso a relatórios detalhados por 3 meses", 250, "📊", true},
	{12, CategoryDigital, "Avatar Personalizado", "Crie seu avatar exclusivo no app", 150, "👤", true},
	{13, CategoryExperiences, "Visita ao Parque Ecológico", "Ingresso para parque ecológico + guia", 600, "🌳", true},
	{14, CategoryExperiences, "Workshop de Reciclagem", "Aprenda a fazer objetos com materiais recicláveis", 400, "♻️", true},
	{15, CategoryExperiences, "Trilha Ecológica", "Trilha guiada em reserva ambiental", 500, "🥾", false},
	{16, CategoryExperiences, "Palestra Ambiental", "Ingresso para evento sobre sustentabilidade", 300, "🎤", true},
	{17, CategoryDonations, "Plante uma Árvore", "Plantio de árvore nativa em seu nome", 200, "🌱", true},
	{18, CategoryDonations, "Limpeza de Praia", "Apoie ação de limpeza de praias", 150, "🏖️", true},
	{19, CategoryDonations, "Doação para ONG", "R$ 10 para ONG ambiental de sua escolha", 300, "💚", true},
	{20, CategoryDonations, "Projeto Comunitário", "Apoie horta comunitária local", 400, "🥬", true},
}

// Catalog returns every reward in id order.
func Catalog() []Reward {
	return slices.Clone(catalog)
}

// ByCategory returns the rewards of one category.
func ByCategory(c Category) []Reward {
	var out []Reward
	for _, r := range catalog {
		if r.Category == c {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the reward with the given id.
func Find(id int) (Reward, error) {
	for _, r := range catalog {
		if r.ID == id {
			return r, nil
		}
	}
	return Reward{}, ErrRewardNotFound
}

// Redeemer exchanges points through the progression engine.
type Redeemer interface {
	Redeem(ctx context.Context, userID string, r user.Redemption) (*progression.Outcome, error)
}

// Service redeems catalog rewards.
type Service struct {
	engine Redeemer
}

// NewService creates a rewards service.
func NewService(engine Redeemer) *Service {
	return &Service{engine: engine}
}

// Redeem spends the reward's cost from the user's balance.
func (s *Service) Redeem(ctx context.Context, userID string, rewardID int) (*progression.Outcome, Reward, error) {
	reward, err := Find(rewardID)
	if err != nil {
		return nil, Reward{}, err
	}
	if !reward.Available {
		return nil, reward, ErrRewardUnavailable
	}

	outcome, err := s.engine.Redeem(ctx, userID, user.Redemption{
		RewardID: reward.ID,
		Name:     reward.Name,
		Points:   reward.Points,
	})
	if err != nil {
		return nil, reward, fmt.Errorf("redeeming %q: %w", reward.Name, err)
	}
	return outcome, reward, nil
}
