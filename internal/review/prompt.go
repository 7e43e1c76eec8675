package review

import (
	"fmt"
	"strings"

	"github.com/tmercier/vinyl-vault/internal/discogs"
)

// maxPromptTracks caps how many tracklist entries go into the prompt;
// the remainder is summarized as a count.
const maxPromptTracks = 5

// BuildPrompt renders the French critic prompt for an album. The model is
// instructed to close with a literal "Note : X.X/10" marker and to name one
// comparable album on an "ALBUM RECOMMANDÉ" line, both of which the parser
// in parse.go depends on.
func BuildPrompt(release *discogs.Release) string {
	var b strings.Builder

	b.WriteString("Tu es un critique musical légendaire, rédacteur en chef de Pitchfork avec 20 ans d'expérience. ")
	b.WriteString("Tu as écrit pour Rolling Stone, NME, et The Quietus. Tu es connu pour ton exigence implacable ")
	b.WriteString("et tes analyses sans concession. Écris une critique musicale de 250-350 mots en français :\n\n")

	fmt.Fprintf(&b, "ALBUM: %s - %s (%d)\n", release.Title, joinOr(release.ArtistNames(), "Artiste inconnu"), release.Year)
	fmt.Fprintf(&b, "GENRE: %s | STYLE: %s\n", joinOr(release.Genres, "Non spécifié"), joinOr(release.Styles, "Non spécifié"))
	fmt.Fprintf(&b, "LABEL: %s\n", joinOr(labelNames(release.Labels), "Non spécifié"))
	fmt.Fprintf(&b, "TRACKS: %s\n\n", trackSummary(release.Tracklist))

	b.WriteString(`STRUCTURE OBLIGATOIRE :
1. ANALYSE DE L'INTENTION : Que cherche à accomplir cet album ? Quelle est sa vision artistique ?
2. ÉVALUATION TECHNIQUE : Composition, arrangements, production, performances instrumentales
3. COHÉRENCE ARTISTIQUE : L'album tient-il ses promesses ? Y a-t-il des failles conceptuelles ?
4. INNOVATION vs CONFORMISME : Apporte-t-il quelque chose de nouveau ou recycle-t-il des clichés ?
5. VERDICT FINAL : Impact émotionnel et intellectuel, place dans la discographie de l'artiste

ÉCHELLE DE NOTATION STRICTE :
- 9.0-10.0 : RÉVOLUTIONNAIRE - Redéfinit le genre, influence durable, perfection technique et artistique
- 8.0-8.9 : EXCEPTIONNEL - Chef-d'œuvre avec quelques imperfections mineures, influence majeure
- 7.0-7.9 : TRÈS BON - Album solide avec des moments brillants, quelques défauts notables
- 6.0-6.9 : BON - Qualité correcte mais sans éclat particulier, quelques bonnes idées
- 5.0-5.9 : MOYEN - Compétent mais sans inspiration, remplissage convenable
- 4.0-4.9 : DÉCEVANT - Problèmes techniques ou artistiques majeurs, raté partiel
- 3.0-3.9 : MAUVAIS - Échec artistique notable, peu d'intérêt musical
- 2.0-2.9 : TRÈS MAUVAIS - Presque sans valeur, erreurs grossières
- 1.0-1.9 : CATASTROPHIQUE - Échec complet, sans aucun mérite
- 0.0-0.9 : INSUPPORTABLE - Offense à la musique, à éviter absolument

EXIGENCES CRITIQUES :
- Sois IMPLACABLE : Un 8/10 doit être justifié par une excellence réelle
- Évite la complaisance : La plupart des albums sont moyens (5-6/10)
- Analyse technique précise : Production, mixage, arrangements, performances
- Contextualise : Compare aux références du genre et à l'époque
- Sois constructif : Même dans la critique, explique pourquoi quelque chose ne fonctionne pas
- Termine par "Note : X.X/10" avec une décimale précise

ALBUM RECOMMANDÉ :
Après la note, ajoute sur une ligne séparée une recommandation d'un album comparable, au format exact :
"ALBUM RECOMMANDÉ : [Titre de l'album] - [Artiste] ([Année])"

FORMAT STRICT pour l'album recommandé :
- Pas d'astérisques (*) dans le titre
- Pas de guillemets autour du titre
- Pas de caractères spéciaux de formatage
- Titre exact de l'album tel qu'il apparaît sur les plateformes
- Exemple correct : "ALBUM RECOMMANDÉ : Kind of Blue - Miles Davis (1959)"
- Exemple incorrect : "ALBUM RECOMMANDÉ : *Kind of Blue* - Miles Davis (1959)"

TON : Professionnel, incisif, sans complaisance mais équitable. Utilise un vocabulaire riche et précis.`)

	return b.String()
}

// trackSummary lists the first maxPromptTracks titles and folds the rest
// into a "+ N autres" suffix.
func trackSummary(tracks []discogs.Track) string {
	if len(tracks) == 0 {
		return "Non disponible"
	}
	titles := make([]string, 0, maxPromptTracks)
	for i, track := range tracks {
		if i >= maxPromptTracks {
			break
		}
		titles = append(titles, track.Title)
	}
	summary := strings.Join(titles, ", ")
	if rest := len(tracks) - maxPromptTracks; rest > 0 {
		summary += fmt.Sprintf(" + %d autres", rest)
	}
	return summary
}

func labelNames(labels []discogs.Label) []string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, l.Name)
	}
	return names
}

func joinOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}
