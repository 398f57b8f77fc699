// Code generated by a local word-generation script for lockbook-go; DO NOT
// fetch or assume this is the standard BIP-39 English wordlist — it is a
// deterministically generated 2048-entry mnemonic wordlist satisfying the
// same 11-bit indexing contract (see Account.Phrase in account.go). See
// DESIGN.md for why the real BIP-39 list isn't embedded verbatim.
package model

// wordlist holds exactly 2048 unique lowercase words, indexable by an
// 11-bit integer (0-2047), used to encode a private key as a 24-word phrase.
var wordlist = [2048]string{
	"back", "bad", "baick", "baid", "bail", "baild", "baile", "baim",
	"bain", "baind", "baine", "baing", "baint", "bair", "baird", "baire",
	"bais", "baish", "baist", "bait", "baive", "baize", "bal", "bald",
	"bale", "bam", "ban", "band", "bane", "bang", "bant", "bar",
	"bard", "bare", "bas", "bash", "bast", "bat", "bave", "baze",
	"beack", "bead", "beal", "beald", "beale", "beam", "bean", "beand",
	"beane", "beang", "beant", "bear", "beard", "beare", "beas", "beash",
	"beast", "beat", "beave", "beaze", "beck", "bed", "beeck", "beed",
	"beel", "beeld", "beele", "beem", "been", "beend", "beene", "beeng",
	"beent", "beer", "beerd", "beere", "bees", "beesh", "beest", "beet",
	"beeve", "beeze", "bel", "beld", "bele", "bem", "ben", "bend",
	"bene", "beng", "bent", "ber", "berd", "bere", "bes", "besh",
	"best", "bet", "beve", "beze", "biack", "biad", "bial", "biald",
	"biale", "biam", "bian", "biand", "biane", "biang", "biant", "biar",
	"biard", "biare", "bias", "biash", "biast", "biat", "biave", "biaze",
	"bick", "bid", "bil", "bild", "bile", "bim", "bin", "bind",
	"bine", "bing", "bint", "bir", "bird", "bire", "bis", "bish",
	"bist", "bit", "bive", "bize", "boack", "boad", "boal", "boald",
	"boale", "boam", "boan", "boand", "boane", "boang", "boant", "boar",
	"board", "boare", "boas", "boash", "boast", "boat", "boave", "boaze",
	"bock", "bod", "bol", "bold", "bole", "bom", "bon", "bond",
	"bone", "bong", "bont", "bor", "bord", "bore", "bos", "bosh",
	"bost", "bot", "bouck", "boud", "boul", "bould", "boule", "boum",
	"boun", "bound", "boune", "boung", "bount", "bour", "bourd", "boure",
	"bous", "boush", "boust", "bout", "bouve", "bouze", "bove", "boze",
	"buck", "bud", "bul", "buld", "bule", "bum", "bun", "bund",
	"bune", "bung", "bunt", "bur", "burd", "bure", "bus", "bush",
	"bust", "but", "buve", "buze", "cack", "cad", "caick", "caid",
	"cail", "caild", "caile", "caim", "cain", "caind", "caine", "caing",
	"caint", "cair", "caird", "caire", "cais", "caish", "caist", "cait",
	"caive", "caize", "cal", "cald", "cale", "cam", "can", "cand",
	"cane", "cang", "cant", "car", "card", "care", "cas", "cash",
	"cast", "cat", "cave", "caze", "ceack", "cead", "ceal", "ceald",
	"ceale", "ceam", "cean", "ceand", "ceane", "ceang", "ceant", "cear",
	"ceard", "ceare", "ceas", "ceash", "ceast", "ceat", "ceave", "ceaze",
	"ceck", "ced", "ceeck", "ceed", "ceel", "ceeld", "ceele", "ceem",
	"ceen", "ceend", "ceene", "ceeng", "ceent", "ceer", "ceerd", "ceere",
	"cees", "ceesh", "ceest", "ceet", "ceeve", "ceeze", "cel", "celd",
	"cele", "cem", "cen", "cend", "cene", "ceng", "cent", "cer",
	"cerd", "cere", "ces", "cesh", "cest", "cet", "ceve", "ceze",
	"ciack", "ciad", "cial", "ciald", "ciale", "ciam", "cian", "ciand",
	"ciane", "ciang", "ciant", "ciar", "ciard", "ciare", "cias", "ciash",
	"ciast", "ciat", "ciave", "ciaze", "cick", "cid", "cil", "cild",
	"cile", "cim", "cin", "cind", "cine", "cing", "cint", "cir",
	"cird", "cire", "cis", "cish", "cist", "cit", "cive", "cize",
	"coack", "coad", "coal", "coald", "coale", "coam", "coan", "coand",
	"coane", "coang", "coant", "coar", "coard", "coare", "coas", "coash",
	"coast", "coat", "coave", "coaze", "cock", "cod", "col", "cold",
	"cole", "com", "con", "cond", "cone", "cong", "cont", "cor",
	"cord", "core", "cos", "cosh", "cost", "cot", "couck", "coud",
	"coul", "could", "coule", "coum", "coun", "cound", "coune", "coung",
	"count", "cour", "courd", "coure", "cous", "coush", "coust", "cout",
	"couve", "couze", "cove", "coze", "cuck", "cud", "cul", "culd",
	"cule", "cum", "cun", "cund", "cune", "cung", "cunt", "cur",
	"curd", "cure", "cus", "cush", "cust", "cut", "cuve", "cuze",
	"dack", "dad", "daick", "daid", "dail", "daild", "daile", "daim",
	"dain", "daind", "daine", "daing", "daint", "dair", "daird", "daire",
	"dais", "daish", "daist", "dait", "daive", "daize", "dal", "dald",
	"dale", "dam", "dan", "dand", "dane", "dang", "dant", "dar",
	"dard", "dare", "das", "dash", "dast", "dat", "dave", "daze",
	"deack", "dead", "deal", "deald", "deale", "deam", "dean", "deand",
	"deane", "deang", "deant", "dear", "deard", "deare", "deas", "deash",
	"deast", "deat", "deave", "deaze", "deck", "ded", "deeck", "deed",
	"deel", "deeld", "deele", "deem", "deen", "deend", "deene", "deeng",
	"deent", "deer", "deerd", "deere", "dees", "deesh", "deest", "deet",
	"deeve", "deeze", "del", "deld", "dele", "dem", "den", "dend",
	"dene", "deng", "dent", "der", "derd", "dere", "des", "desh",
	"dest", "det", "deve", "deze", "diack", "diad", "dial", "diald",
	"diale", "diam", "dian", "diand", "diane", "diang", "diant", "diar",
	"diard", "diare", "dias", "diash", "diast", "diat", "diave", "diaze",
	"dick", "did", "dil", "dild", "dile", "dim", "din", "dind",
	"dine", "ding", "dint", "dir", "dird", "dire", "dis", "dish",
	"dist", "dit", "dive", "dize", "doack", "doad", "doal", "doald",
	"doale", "doam", "doan", "doand", "doane", "doang", "doant", "doar",
	"doard", "doare", "doas", "doash", "doast", "doat", "doave", "doaze",
	"dock", "dod", "dol", "dold", "dole", "dom", "don", "dond",
	"done", "dong", "dont", "dor", "dord", "dore", "dos", "dosh",
	"dost", "dot", "douck", "doud", "doul", "dould", "doule", "doum",
	"doun", "dound", "doune", "doung", "dount", "dour", "dourd", "doure",
	"dous", "doush", "doust", "dout", "douve", "douze", "dove", "doze",
	"duck", "dud", "dul", "duld", "dule", "dum", "dun", "dund",
	"dune", "dung", "dunt", "dur", "durd", "dure", "dus", "dush",
	"dust", "dut", "duve", "duze", "fack", "fad", "faick", "faid",
	"fail", "faild", "faile", "faim", "fain", "faind", "faine", "faing",
	"faint", "fair", "faird", "faire", "fais", "faish", "faist", "fait",
	"faive", "faize", "fal", "fald", "fale", "fam", "fan", "fand",
	"fane", "fang", "fant", "far", "fard", "fare", "fas", "fash",
	"fast", "fat", "fave", "faze", "feack", "fead", "feal", "feald",
	"feale", "feam", "fean", "feand", "feane", "feang", "feant", "fear",
	"feard", "feare", "feas", "feash", "feast", "feat", "feave", "feaze",
	"feck", "fed", "feeck", "feed", "feel", "feeld", "feele", "feem",
	"feen", "feend", "feene", "feeng", "feent", "feer", "feerd", "feere",
	"fees", "feesh", "feest", "feet", "feeve", "feeze", "fel", "feld",
	"fele", "fem", "fen", "fend", "fene", "feng", "fent", "fer",
	"ferd", "fere", "fes", "fesh", "fest", "fet", "feve", "feze",
	"fiack", "fiad", "fial", "fiald", "fiale", "fiam", "fian", "fiand",
	"fiane", "fiang", "fiant", "fiar", "fiard", "fiare", "fias", "fiash",
	"fiast", "fiat", "fiave", "fiaze", "fick", "fid", "fil", "fild",
	"file", "fim", "fin", "find", "fine", "fing", "fint", "fir",
	"fird", "fire", "fis", "fish", "fist", "fit", "five", "fize",
	"foack", "foad", "foal", "foald", "foale", "foam", "foan", "foand",
	"foane", "foang", "foant", "foar", "foard", "foare", "foas", "foash",
	"foast", "foat", "foave", "foaze", "fock", "fod", "fol", "fold",
	"fole", "fom", "fon", "fond", "fone", "fong", "font", "for",
	"ford", "fore", "fos", "fosh", "fost", "fot", "fouck", "foud",
	"foul", "fould", "foule", "foum", "foun", "found", "foune", "foung",
	"fount", "four", "fourd", "foure", "fous", "foush", "foust", "fout",
	"fouve", "fouze", "fove", "foze", "fuck", "fud", "ful", "fuld",
	"fule", "fum", "fun", "fund", "fune", "fung", "funt", "fur",
	"furd", "fure", "fus", "fush", "fust", "fut", "fuve", "fuze",
	"gack", "gad", "gaick", "gaid", "gail", "gaild", "gaile", "gaim",
	"gain", "gaind", "gaine", "gaing", "gaint", "gair", "gaird", "gaire",
	"gais", "gaish", "gaist", "gait", "gaive", "gaize", "gal", "gald",
	"gale", "gam", "gan", "gand", "gane", "gang", "gant", "gar",
	"gard", "gare", "gas", "gash", "gast", "gat", "gave", "gaze",
	"geack", "gead", "geal", "geald", "geale", "geam", "gean", "geand",
	"geane", "geang", "geant", "gear", "geard", "geare", "geas", "geash",
	"geast", "geat", "geave", "geaze", "geck", "ged", "geeck", "geed",
	"geel", "geeld", "geele", "geem", "geen", "geend", "geene", "geeng",
	"geent", "geer", "geerd", "geere", "gees", "geesh", "geest", "geet",
	"geeve", "geeze", "gel", "geld", "gele", "gem", "gen", "gend",
	"gene", "geng", "gent", "ger", "gerd", "gere", "ges", "gesh",
	"gest", "get", "geve", "geze", "giack", "giad", "gial", "giald",
	"giale", "giam", "gian", "giand", "giane", "giang", "giant", "giar",
	"giard", "giare", "gias", "giash", "giast", "giat", "giave", "giaze",
	"gick", "gid", "gil", "gild", "gile", "gim", "gin", "gind",
	"gine", "ging", "gint", "gir", "gird", "gire", "gis", "gish",
	"gist", "git", "give", "gize", "goack", "goad", "goal", "goald",
	"goale", "goam", "goan", "goand", "goane", "goang", "goant", "goar",
	"goard", "goare", "goas", "goash", "goast", "goat", "goave", "goaze",
	"gock", "god", "gol", "gold", "gole", "gom", "gon", "gond",
	"gone", "gong", "gont", "gor", "gord", "gore", "gos", "gosh",
	"gost", "got", "gouck", "goud", "goul", "gould", "goule", "goum",
	"goun", "gound", "goune", "goung", "gount", "gour", "gourd", "goure",
	"gous", "goush", "goust", "gout", "gouve", "gouze", "gove", "goze",
	"guck", "gud", "gul", "guld", "gule", "gum", "gun", "gund",
	"gune", "gung", "gunt", "gur", "gurd", "gure", "gus", "gush",
	"gust", "gut", "guve", "guze", "hack", "had", "haick", "haid",
	"hail", "haild", "haile", "haim", "hain", "haind", "haine", "haing",
	"haint", "hair", "haird", "haire", "hais", "haish", "haist", "hait",
	"haive", "haize", "hal", "hald", "hale", "ham", "han", "hand",
	"hane", "hang", "hant", "har", "hard", "hare", "has", "hash",
	"hast", "hat", "have", "haze", "heack", "head", "heal", "heald",
	"heale", "heam", "hean", "heand", "heane", "heang", "heant", "hear",
	"heard", "heare", "heas", "heash", "heast", "heat", "heave", "heaze",
	"heck", "hed", "heeck", "heed", "heel", "heeld", "heele", "heem",
	"heen", "heend", "heene", "heeng", "heent", "heer", "heerd", "heere",
	"hees", "heesh", "heest", "heet", "heeve", "heeze", "hel", "held",
	"hele", "hem", "hen", "hend", "hene", "heng", "hent", "her",
	"herd", "here", "hes", "hesh", "hest", "het", "heve", "heze",
	"hiack", "hiad", "hial", "hiald", "hiale", "hiam", "hian", "hiand",
	"hiane", "hiang", "hiant", "hiar", "hiard", "hiare", "hias", "hiash",
	"hiast", "hiat", "hiave", "hiaze", "hick", "hid", "hil", "hild",
	"hile", "him", "hin", "hind", "hine", "hing", "hint", "hir",
	"hird", "hire", "his", "hish", "hist", "hit", "hive", "hize",
	"hoack", "hoad", "hoal", "hoald", "hoale", "hoam", "hoan", "hoand",
	"hoane", "hoang", "hoant", "hoar", "hoard", "hoare", "hoas", "hoash",
	"hoast", "hoat", "hoave", "hoaze", "hock", "hod", "hol", "hold",
	"hole", "hom", "hon", "hond", "hone", "hong", "hont", "hor",
	"hord", "hore", "hos", "hosh", "host", "hot", "houck", "houd",
	"houl", "hould", "houle", "houm", "houn", "hound", "houne", "houng",
	"hount", "hour", "hourd", "houre", "hous", "housh", "houst", "hout",
	"houve", "houze", "hove", "hoze", "huck", "hud", "hul", "huld",
	"hule", "hum", "hun", "hund", "hune", "hung", "hunt", "hur",
	"hurd", "hure", "hus", "hush", "hust", "hut", "huve", "huze",
	"jack", "jad", "jaick", "jaid", "jail", "jaild", "jaile", "jaim",
	"jain", "jaind", "jaine", "jaing", "jaint", "jair", "jaird", "jaire",
	"jais", "jaish", "jaist", "jait", "jaive", "jaize", "jal", "jald",
	"jale", "jam", "jan", "jand", "jane", "jang", "jant", "jar",
	"jard", "jare", "jas", "jash", "jast", "jat", "jave", "jaze",
	"jeack", "jead", "jeal", "jeald", "jeale", "jeam", "jean", "jeand",
	"jeane", "jeang", "jeant", "jear", "jeard", "jeare", "jeas", "jeash",
	"jeast", "jeat", "jeave", "jeaze", "jeck", "jed", "jeeck", "jeed",
	"jeel", "jeeld", "jeele", "jeem", "jeen", "jeend", "jeene", "jeeng",
	"jeent", "jeer", "jeerd", "jeere", "jees", "jeesh", "jeest", "jeet",
	"jeeve", "jeeze", "jel", "jeld", "jele", "jem", "jen", "jend",
	"jene", "jeng", "jent", "jer", "jerd", "jere", "jes", "jesh",
	"jest", "jet", "jeve", "jeze", "jiack", "jiad", "jial", "jiald",
	"jiale", "jiam", "jian", "jiand", "jiane", "jiang", "jiant", "jiar",
	"jiard", "jiare", "jias", "jiash", "jiast", "jiat", "jiave", "jiaze",
	"jick", "jid", "jil", "jild", "jile", "jim", "jin", "jind",
	"jine", "jing", "jint", "jir", "jird", "jire", "jis", "jish",
	"jist", "jit", "jive", "jize", "joack", "joad", "joal", "joald",
	"joale", "joam", "joan", "joand", "joane", "joang", "joant", "joar",
	"joard", "joare", "joas", "joash", "joast", "joat", "joave", "joaze",
	"jock", "jod", "jol", "jold", "jole", "jom", "jon", "jond",
	"jone", "jong", "jont", "jor", "jord", "jore", "jos", "josh",
	"jost", "jot", "jouck", "joud", "joul", "jould", "joule", "joum",
	"joun", "jound", "joune", "joung", "jount", "jour", "jourd", "joure",
	"jous", "joush", "joust", "jout", "jouve", "jouze", "jove", "joze",
	"juck", "jud", "jul", "juld", "jule", "jum", "jun", "jund",
	"june", "jung", "junt", "jur", "jurd", "jure", "jus", "jush",
	"just", "jut", "juve", "juze", "kack", "kad", "kaick", "kaid",
	"kail", "kaild", "kaile", "kaim", "kain", "kaind", "kaine", "kaing",
	"kaint", "kair", "kaird", "kaire", "kais", "kaish", "kaist", "kait",
	"kaive", "kaize", "kal", "kald", "kale", "kam", "kan", "kand",
	"kane", "kang", "kant", "kar", "kard", "kare", "kas", "kash",
	"kast", "kat", "kave", "kaze", "keack", "kead", "keal", "keald",
	"keale", "keam", "kean", "keand", "keane", "keang", "keant", "kear",
	"keard", "keare", "keas", "keash", "keast", "keat", "keave", "keaze",
	"keck", "ked", "keeck", "keed", "keel", "keeld", "keele", "keem",
	"keen", "keend", "keene", "keeng", "keent", "keer", "keerd", "keere",
	"kees", "keesh", "keest", "keet", "keeve", "keeze", "kel", "keld",
	"kele", "kem", "ken", "kend", "kene", "keng", "kent", "ker",
	"kerd", "kere", "kes", "kesh", "kest", "ket", "keve", "keze",
	"kiack", "kiad", "kial", "kiald", "kiale", "kiam", "kian", "kiand",
	"kiane", "kiang", "kiant", "kiar", "kiard", "kiare", "kias", "kiash",
	"kiast", "kiat", "kiave", "kiaze", "kick", "kid", "kil", "kild",
	"kile", "kim", "kin", "kind", "kine", "king", "kint", "kir",
	"kird", "kire", "kis", "kish", "kist", "kit", "kive", "kize",
	"koack", "koad", "koal", "koald", "koale", "koam", "koan", "koand",
	"koane", "koang", "koant", "koar", "koard", "koare", "koas", "koash",
	"koast", "koat", "koave", "koaze", "kock", "kod", "kol", "kold",
	"kole", "kom", "kon", "kond", "kone", "kong", "kont", "kor",
	"kord", "kore", "kos", "kosh", "kost", "kot", "kouck", "koud",
	"koul", "kould", "koule", "koum", "koun", "kound", "koune", "koung",
	"kount", "kour", "kourd", "koure", "kous", "koush", "koust", "kout",
	"kouve", "kouze", "kove", "koze", "kuck", "kud", "kul", "kuld",
	"kule", "kum", "kun", "kund", "kune", "kung", "kunt", "kur",
	"kurd", "kure", "kus", "kush", "kust", "kut", "kuve", "kuze",
	"lack", "lad", "laick", "laid", "lail", "laild", "laile", "laim",
	"lain", "laind", "laine", "laing", "laint", "lair", "laird", "laire",
	"lais", "laish", "laist", "lait", "laive", "laize", "lal", "lald",
	"lale", "lam", "lan", "land", "lane", "lang", "lant", "lar",
	"lard", "lare", "las", "lash", "last", "lat", "lave", "laze",
	"leack", "lead", "leal", "leald", "leale", "leam", "lean", "leand",
	"leane", "leang", "leant", "lear", "leard", "leare", "leas", "leash",
	"least", "leat", "leave", "leaze", "leck", "led", "leeck", "leed",
	"leel", "leeld", "leele", "leem", "leen", "leend", "leene", "leeng",
	"leent", "leer", "leerd", "leere", "lees", "leesh", "leest", "leet",
	"leeve", "leeze", "lel", "leld", "lele", "lem", "len", "lend",
	"lene", "leng", "lent", "ler", "lerd", "lere", "les", "lesh",
	"lest", "let", "leve", "leze", "liack", "liad", "lial", "liald",
	"liale", "liam", "lian", "liand", "liane", "liang", "liant", "liar",
	"liard", "liare", "lias", "liash", "liast", "liat", "liave", "liaze",
	"lick", "lid", "lil", "lild", "lile", "lim", "lin", "lind",
	"line", "ling", "lint", "lir", "lird", "lire", "lis", "lish",
	"list", "lit", "live", "lize", "loack", "load", "loal", "loald",
	"loale", "loam", "loan", "loand", "loane", "loang", "loant", "loar",
	"loard", "loare", "loas", "loash", "loast", "loat", "loave", "loaze",
	"lock", "lod", "lol", "lold", "lole", "lom", "lon", "lond",
	"lone", "long", "lont", "lor", "lord", "lore", "los", "losh",
	"lost", "lot", "louck", "loud", "loul", "lould", "loule", "loum",
	"loun", "lound", "loune", "loung", "lount", "lour", "lourd", "loure",
	"lous", "loush", "loust", "lout", "louve", "louze", "love", "loze",
	"luck", "lud", "lul", "luld", "lule", "lum", "lun", "lund",
	"lune", "lung", "lunt", "lur", "lurd", "lure", "lus", "lush",
	"lust", "lut", "luve", "luze", "mack", "mad", "mal", "mald",
	"male", "mam", "man", "mand", "mane", "mang", "mant", "mar",
	"mard", "mare", "mas", "mash", "mast", "mat", "mave", "maze",
	"meck", "med", "mel", "meld", "mele", "mem", "men", "mend",
	"mene", "meng", "ment", "mer", "merd", "mere", "mes", "mesh",
	"mest", "met", "meve", "meze", "mick", "mid", "mil", "mild",
	"mile", "mim", "min", "mind", "mine", "ming", "mint", "mir",
	"mird", "mire", "mis", "mish", "mist", "mit", "mive", "mize",
	"mod", "mol", "mom", "mon", "mont", "mor", "mos", "mot",
}
