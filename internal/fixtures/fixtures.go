// Package fixtures contains the demo dataset a fresh installation starts with
package fixtures

import (
	"time"

	"github.com/1752rissy/enterate/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func avatar(name, color string) string {
	return "https://ui-avatars.com/api/?name=" + name + "&background=" + color + "&color=fff"
}

// Users returns the demo users
func Users() []models.User {
	return []models.User{
		{
			ID:           "1",
			Name:         "Juan Pérez",
			Email:        "juan@example.com",
			ProfileImage: avatar("Juan+Perez", "3b82f6"),
			Role:         models.RoleUser,
			CreatedAt:    day("2024-01-15"),
		},
		{
			ID:           "2",
			Name:         "Ana García",
			Email:        "ana.moderator@example.com",
			ProfileImage: avatar("Ana+Garcia", "10b981"),
			Role:         models.RoleModerator,
			CreatedAt:    day("2024-01-10"),
		},
		{
			ID:           "3",
			Name:         "Carlos Admin",
			Email:        "carlos.admin@example.com",
			ProfileImage: avatar("Carlos+Admin", "dc2626"),
			Role:         models.RoleAdmin,
			CreatedAt:    day("2024-01-01"),
		},
	}
}

// Events returns the demo events. Likes always match the liker list
func Events() []models.Event {
	evts := []models.Event{
		{
			ID:    "1",
			Title: "Festival de Jazz en el Parque",
			Description: "Un evento musical único con los mejores artistas de jazz de la región. Disfruta de una " +
				"tarde llena de música en vivo, comida gourmet y un ambiente familiar.",
			Date:          "2024-12-15",
			Time:          "18:00",
			Location:      "Parque Central, Buenos Aires",
			Category:      "Música",
			ImageURL:      "https://images.unsplash.com/photo-1493225457124-a3eb161ffa5f?w=800&h=400&fit=crop",
			Price:         2500,
			OrganizerName: "Ana García",
			CreatedBy:     "2",
			Points:        50,
			LikedBy:       models.IDList{"1", "3"},
			Attendees:     models.IDList{"1", "3"},
			Comments: []models.Comment{
				{
					ID:               "1",
					EventID:          "1",
					UserID:           "1",
					UserName:         "Juan Pérez",
					UserProfileImage: avatar("Juan+Perez", "3b82f6"),
					Content:          "¡Excelente evento! No puedo esperar a asistir.",
					CreatedAt:        day("2024-11-02"),
				},
			},
			CreatedAt: day("2024-11-01"),
		},
		{
			ID:    "2",
			Title: "Feria Gastronómica Internacional",
			Description: "Descubre sabores de todo el mundo en nuestra feria gastronómica. Más de 50 stands con " +
				"comida típica de diferentes países.",
			Date:          "2024-12-20",
			Time:          "12:00",
			Location:      "Centro de Convenciones, Córdoba",
			Category:      "Gastronomía",
			ImageURL:      "https://images.unsplash.com/photo-1555939594-58d7cb561ad1?w=800&h=400&fit=crop",
			OrganizerName: "Carlos Admin",
			CreatedBy:     "3",
			Points:        30,
			LikedBy:       models.IDList{"1", "2"},
			Attendees:     models.IDList{"1", "2"},
			CreatedAt:     day("2024-11-05"),
		},
		{
			ID:    "3",
			Title: "Tour Histórico por el Casco Antiguo",
			Description: "Recorre los lugares más emblemáticos de la ciudad con guías especializados. Conoce la " +
				"historia y arquitectura colonial.",
			Date:          "2024-12-25",
			Time:          "10:00",
			Location:      "Plaza de Armas, Salta",
			Category:      "Turismo",
			ImageURL:      "https://images.unsplash.com/photo-1539650116574-75c0c6d73f6e?w=800&h=400&fit=crop",
			Price:         1500,
			OrganizerName: "Ana García",
			CreatedBy:     "2",
			Points:        40,
			LikedBy:       models.IDList{"3"},
			Attendees:     models.IDList{"3"},
			CreatedAt:     day("2024-11-08"),
		},
		{
			ID:    "4",
			Title: "Exposición de Arte Contemporáneo",
			Description: "Muestra de obras de artistas emergentes locales. Una oportunidad única para conocer el " +
				"talento artístico de la región.",
			Date:          "2024-12-30",
			Time:          "16:00",
			Location:      "Museo de Arte Moderno, Rosario",
			Category:      "Arte",
			ImageURL:      "https://images.unsplash.com/photo-1541961017774-22349e4a1262?w=800&h=400&fit=crop",
			Price:         800,
			OrganizerName: "Carlos Admin",
			CreatedBy:     "3",
			Points:        20,
			LikedBy:       models.IDList{"1", "2"},
			Attendees:     models.IDList{"1", "2"},
			CreatedAt:     day("2024-11-10"),
		},
	}
	for i := range evts {
		evts[i].Likes = len(evts[i].LikedBy)
		if evts[i].Comments == nil {
			evts[i].Comments = []models.Comment{}
		}
	}
	return evts
}
