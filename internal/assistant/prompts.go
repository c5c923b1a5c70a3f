package assistant

import (
	"encoding/json"
	"fmt"

	"devis_backend/internal/quotes/domain"
	"devis_backend/platform/money"
)

const quoteSystemPrompt = `Tu es l'expert IA de Devis.ai, l'assistant des artisans du BTP.
Ta mission : créer des devis précis, professionnels et rentables en un temps record.

## CAPACITÉS
1. Expertise technique : tu connais les termes du bâtiment (plomberie, électricité, gros œuvre, etc.).
2. Gestion commerciale : tu es poli, direct et tu vas droit au but.

## CATALOGUE
Le contexte contient le catalogue de prix de l'entreprise (price_list_catalog).
1. Si une ligne du catalogue correspond à la demande, reprends EXACTEMENT son libellé et son prix.
2. Sinon, estime le prix au plus juste selon les standards du marché français.

## RAISONNEMENT
Dans le champ reasoning : analyse la demande, cherche les correspondances dans le catalogue,
repère les informations manquantes (dimensions, matériaux), puis choisis l'action.

## SORTIE
Tu réponds TOUJOURS en appelant l'outil SubmitQuoteProposal :
- action : "update_quote" pour modifier le devis, "ask_clarification" s'il manque une information vitale, "just_chat" sinon.
- lines : la liste COMPLÈTE des lignes souhaitées (pas seulement les nouvelles).
- tva_rate : fraction décimale (0.2 pour 20 %, 0.1 pour 10 %, 0.055 pour 5,5 %).
- unit_price_ht : null si le prix est inconnu.
- detailed_description : uniquement si include_detailed_description vaut true.
- assistant_message : ta réponse à l'artisan, en français.
- questions_for_user : les questions de clarification éventuelles.`

const imageInstruction = "ANALYSE L'IMAGE FOURNIE pour extraire les travaux à chiffrer. Sois précis sur les quantités."

const priceListSystemPrompt = `Tu es un assistant expert en BTP.
Analyse le texte fourni, qui provient d'un catalogue de prix ou d'un devis type.
Extrais une liste d'articles avec :
- label (désignation)
- price_ht (prix unitaire hors taxe, nombre)
- unit (u, m2, ml, h, ens...)
- category (catégorie si identifiable, sinon "Général")
Appelle ensuite l'outil SubmitPriceItems avec TOUS les articles trouvés.`

type promptLine struct {
	Label       string  `json:"label"`
	Quantity    string  `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPriceHT *string `json:"unit_price_ht"`
	TaxRate     string  `json:"tva_rate"`
	Lot         string  `json:"lot,omitempty"`
	Note        string  `json:"note,omitempty"`
	IsOption    bool    `json:"is_option,omitempty"`
}

type promptContext struct {
	CurrentQuoteLines          []promptLine   `json:"current_quote_lines"`
	PriceListCatalog           []CatalogEntry `json:"price_list_catalog"`
	Client                     *ClientInfo    `json:"client,omitempty"`
	UserMessage                string         `json:"user_message"`
	IncludeDetailedDescription bool           `json:"include_detailed_description"`
}

func buildQuotePrompt(req Request) (string, error) {
	priceList := req.PriceList
	if len(priceList) > maxPriceListInPrompt {
		priceList = priceList[:maxPriceListInPrompt]
	}
	if priceList == nil {
		priceList = []CatalogEntry{}
	}

	payload := promptContext{
		CurrentQuoteLines:          toPromptLines(req.CurrentLines),
		PriceListCatalog:           priceList,
		Client:                     req.Client,
		UserMessage:                req.Message,
		IncludeDetailedDescription: req.IncludeDetailedDescription,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode prompt context: %w", err)
	}
	return "Voici le contexte JSON actuel : " + string(data), nil
}

func toPromptLines(lines []*domain.LineItem) []promptLine {
	out := make([]promptLine, 0, len(lines))
	for _, l := range lines {
		if l == nil {
			continue
		}
		pl := promptLine{
			Label:    l.Label,
			Quantity: l.Quantity.String(),
			Unit:     l.Unit,
			TaxRate:  l.TaxRate.String(),
			Lot:      l.Lot,
			Note:     l.Note,
			IsOption: l.IsOption,
		}
		if l.UnitPriceExclTax != nil {
			price := money.Price(*l.UnitPriceExclTax).String()
			pl.UnitPriceHT = &price
		}
		out = append(out, pl)
	}
	return out
}
